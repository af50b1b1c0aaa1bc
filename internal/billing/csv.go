package billing

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/billing/internal/model"
)

// CSV headers for invoices.csv and payments.csv.
var (
	InvoiceHeader = []string{"number", "customer", "issue_date", "due_date", "total", "currency", "status", "notes"}
	PaymentHeader = []string{"reference", "customer", "date", "amount", "currency", "method", "invoice", "notes"}
)

const (
	invFields    = 8
	invNumber    = 0
	invCustomer  = 1
	invIssueDate = 2
	invDueDate   = 3
	invTotal     = 4
	invCurrency  = 5
	invStatus    = 6
	invNotes     = 7

	payFields    = 8
	payReference = 0
	payCustomer  = 1
	payDate      = 2
	payAmount    = 3
	payCurrency  = 4
	payMethod    = 5
	payInvoice   = 6
	payNotes     = 7
)

// ReadInvoices reads all invoices from an invoices.csv reader.
func ReadInvoices(r io.Reader) ([]model.Invoice, error) {
	records, err := readRecords(r, invFields)
	if err != nil {
		return nil, fmt.Errorf("reading invoices CSV: %w", err)
	}
	var out []model.Invoice
	for i, rec := range records {
		inv, err := UnmarshalInvoice(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// ReadPayments reads all payments from a payments.csv reader.
func ReadPayments(r io.Reader) ([]model.Payment, error) {
	records, err := readRecords(r, payFields)
	if err != nil {
		return nil, fmt.Errorf("reading payments CSV: %w", err)
	}
	var out []model.Payment
	for i, rec := range records {
		p, err := UnmarshalPayment(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// readRecords returns the data rows, skipping the header.
func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

// AppendRows writes rows to an existing CSV writer (no header).
func AppendRows(w io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(w)
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalInvoice converts an Invoice to a CSV row.
func MarshalInvoice(inv model.Invoice) []string {
	row := make([]string, invFields)
	row[invNumber] = inv.Number
	row[invCustomer] = inv.Customer
	row[invIssueDate] = formatDate(inv.IssueDate)
	row[invDueDate] = formatDate(inv.DueDate)
	row[invTotal] = inv.Total.StringFixed(2)
	row[invCurrency] = inv.Currency
	row[invStatus] = string(inv.Status)
	row[invNotes] = inv.Notes
	return row
}

// UnmarshalInvoice converts a CSV row to an Invoice.
func UnmarshalInvoice(record []string) (model.Invoice, error) {
	if len(record) != invFields {
		return model.Invoice{}, fmt.Errorf("expected %d fields, got %d", invFields, len(record))
	}

	issued, err := parseDate(record[invIssueDate], "issue_date")
	if err != nil {
		return model.Invoice{}, err
	}
	due, err := parseDate(record[invDueDate], "due_date")
	if err != nil {
		return model.Invoice{}, err
	}
	total, err := parseAmount(record[invTotal], "total")
	if err != nil {
		return model.Invoice{}, err
	}

	return model.Invoice{
		Number:    record[invNumber],
		Customer:  record[invCustomer],
		IssueDate: issued,
		DueDate:   due,
		Total:     total,
		Currency:  record[invCurrency],
		Status:    model.InvoiceStatus(record[invStatus]),
		Notes:     record[invNotes],
	}, nil
}

// MarshalPayment converts a Payment to a CSV row.
func MarshalPayment(p model.Payment) []string {
	row := make([]string, payFields)
	row[payReference] = p.Reference
	row[payCustomer] = p.Customer
	row[payDate] = formatDate(p.Date)
	row[payAmount] = p.Amount.StringFixed(2)
	row[payCurrency] = p.Currency
	row[payMethod] = p.Method
	row[payInvoice] = p.Invoice
	row[payNotes] = p.Notes
	return row
}

// UnmarshalPayment converts a CSV row to a Payment.
func UnmarshalPayment(record []string) (model.Payment, error) {
	if len(record) != payFields {
		return model.Payment{}, fmt.Errorf("expected %d fields, got %d", payFields, len(record))
	}

	date, err := parseDate(record[payDate], "date")
	if err != nil {
		return model.Payment{}, err
	}
	amount, err := parseAmount(record[payAmount], "amount")
	if err != nil {
		return model.Payment{}, err
	}

	return model.Payment{
		Reference: record[payReference],
		Customer:  record[payCustomer],
		Date:      date,
		Amount:    amount,
		Currency:  record[payCurrency],
		Method:    record[payMethod],
		Invoice:   record[payInvoice],
		Notes:     record[payNotes],
	}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateFormat)
}

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return t, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
