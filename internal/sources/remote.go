package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/billing"
	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
	"github.com/cleared-dev/billing/internal/tableapi"
)

// Table names shared by the remote API and the Postgres schema.
const (
	InvoicesTable  = "invoices"
	PaymentsTable  = "payments"
	CustomersTable = "customers"
)

// FetchLimit caps how many rows one customer fetch returns. Statements read
// every matching record in one request rather than paging.
const FetchLimit = 10000

type invoiceRecord struct {
	Number    string          `json:"number"`
	Customer  string          `json:"customer"`
	IssueDate string          `json:"issue_date"`
	DueDate   *string         `json:"due_date"`
	Total     decimal.Decimal `json:"total"`
	Currency  *string         `json:"currency"`
	Status    *string         `json:"status"`
	Notes     *string         `json:"notes"`
}

type customerRecord struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Currency *string `json:"currency"`
}

type paymentRecord struct {
	Reference string          `json:"reference"`
	Customer  string          `json:"customer"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  *string         `json:"currency"`
	Method    *string         `json:"method"`
	Invoice   *string         `json:"invoice"`
	Notes     *string         `json:"notes"`
}

// Remote reads and writes the book through a table API.
type Remote struct {
	client *tableapi.Client
	logger *zap.Logger
}

// NewRemote creates a Remote source.
func NewRemote(client *tableapi.Client, logger *zap.Logger) *Remote {
	return &Remote{client: client, logger: logger}
}

// InvoicesForCustomer selects the customer's invoices ordered by issue date.
// Names match case-insensitively, as in the other sources.
func (r *Remote) InvoicesForCustomer(ctx context.Context, customer string, order statement.SortOrder) ([]model.Invoice, error) {
	var recs []invoiceRecord
	q := tableapi.Query{
		Where: []tableapi.Filter{tableapi.ILike("customer", customer)},
		Order: []tableapi.Order{{Column: "issue_date", Descending: order == statement.Descending}},
		Limit: FetchLimit,
	}
	if err := r.client.Select(ctx, InvoicesTable, q, &recs); err != nil {
		return nil, err
	}
	r.warnIfCapped(InvoicesTable, customer, len(recs))

	out := make([]model.Invoice, 0, len(recs))
	for _, rec := range recs {
		if !billing.SameCustomer(rec.Customer, customer) {
			continue
		}
		inv, err := rec.invoice()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// PaymentsForCustomer selects the customer's payments.
func (r *Remote) PaymentsForCustomer(ctx context.Context, customer string) ([]model.Payment, error) {
	var recs []paymentRecord
	q := tableapi.Query{
		Where: []tableapi.Filter{tableapi.ILike("customer", customer)},
		Order: []tableapi.Order{{Column: "date"}},
		Limit: FetchLimit,
	}
	if err := r.client.Select(ctx, PaymentsTable, q, &recs); err != nil {
		return nil, err
	}
	r.warnIfCapped(PaymentsTable, customer, len(recs))

	out := make([]model.Payment, 0, len(recs))
	for _, rec := range recs {
		if !billing.SameCustomer(rec.Customer, customer) {
			continue
		}
		p, err := rec.payment()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadInvoices selects every invoice in the book.
func (r *Remote) LoadInvoices(ctx context.Context) ([]model.Invoice, error) {
	var recs []invoiceRecord
	q := tableapi.Query{Order: []tableapi.Order{{Column: "number"}}, Limit: FetchLimit}
	if err := r.client.Select(ctx, InvoicesTable, q, &recs); err != nil {
		return nil, err
	}
	r.warnIfCapped(InvoicesTable, "", len(recs))

	out := make([]model.Invoice, 0, len(recs))
	for _, rec := range recs {
		inv, err := rec.invoice()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// LoadPayments selects every payment in the book.
func (r *Remote) LoadPayments(ctx context.Context) ([]model.Payment, error) {
	var recs []paymentRecord
	q := tableapi.Query{Order: []tableapi.Order{{Column: "reference"}}, Limit: FetchLimit}
	if err := r.client.Select(ctx, PaymentsTable, q, &recs); err != nil {
		return nil, err
	}
	r.warnIfCapped(PaymentsTable, "", len(recs))

	out := make([]model.Payment, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.payment()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadCustomers selects the customer list.
func (r *Remote) LoadCustomers(ctx context.Context) ([]model.Customer, error) {
	var recs []customerRecord
	q := tableapi.Query{Order: []tableapi.Order{{Column: "name"}}, Limit: FetchLimit}
	if err := r.client.Select(ctx, CustomersTable, q, &recs); err != nil {
		return nil, err
	}
	out := make([]model.Customer, len(recs))
	for i, rec := range recs {
		out[i] = model.Customer{
			Name:     rec.Name,
			Email:    deref(rec.Email),
			Phone:    deref(rec.Phone),
			Address:  deref(rec.Address),
			Currency: deref(rec.Currency),
		}
	}
	return out, nil
}

func (r *Remote) AppendCustomer(ctx context.Context, c model.Customer) error {
	return r.client.Insert(ctx, CustomersTable, customerRecord{
		Name:     c.Name,
		Email:    optional(c.Email),
		Phone:    optional(c.Phone),
		Address:  optional(c.Address),
		Currency: optional(c.Currency),
	})
}

func (r *Remote) AppendInvoice(ctx context.Context, inv model.Invoice) error {
	return r.client.Insert(ctx, InvoicesTable, newInvoiceRecord(inv))
}

func (r *Remote) AppendPayment(ctx context.Context, p model.Payment) error {
	return r.client.Insert(ctx, PaymentsTable, newPaymentRecord(p))
}

func (r *Remote) UpdateInvoiceStatus(ctx context.Context, number string, status model.InvoiceStatus) error {
	q := tableapi.Query{Where: []tableapi.Filter{tableapi.Eq("number", number)}}
	return r.client.Update(ctx, InvoicesTable, q, map[string]string{"status": string(status)})
}

func (r *Remote) DeletePayment(ctx context.Context, reference string) error {
	q := tableapi.Query{Where: []tableapi.Filter{tableapi.Eq("reference", reference)}}
	return r.client.Delete(ctx, PaymentsTable, q)
}

func (r *Remote) warnIfCapped(table, customer string, n int) {
	if n >= FetchLimit {
		r.logger.Warn("fetch limit reached, results may be incomplete",
			zap.String("table", table),
			zap.String("customer", customer),
			zap.Int("limit", FetchLimit))
	}
}

func newInvoiceRecord(inv model.Invoice) invoiceRecord {
	return invoiceRecord{
		Number:    inv.Number,
		Customer:  inv.Customer,
		IssueDate: inv.IssueDate.Format(model.DateFormat),
		DueDate:   optionalDate(inv.DueDate),
		Total:     inv.Total,
		Currency:  optional(inv.Currency),
		Status:    optional(string(inv.Status)),
		Notes:     optional(inv.Notes),
	}
}

func newPaymentRecord(p model.Payment) paymentRecord {
	return paymentRecord{
		Reference: p.Reference,
		Customer:  p.Customer,
		Date:      p.Date.Format(model.DateFormat),
		Amount:    p.Amount,
		Currency:  optional(p.Currency),
		Method:    optional(p.Method),
		Invoice:   optional(p.Invoice),
		Notes:     optional(p.Notes),
	}
}

func (rec invoiceRecord) invoice() (model.Invoice, error) {
	issue, err := parseDate(rec.IssueDate)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("invoice %s issue_date: %w", rec.Number, err)
	}
	due, err := parseDate(deref(rec.DueDate))
	if err != nil {
		return model.Invoice{}, fmt.Errorf("invoice %s due_date: %w", rec.Number, err)
	}
	return model.Invoice{
		Number:    rec.Number,
		Customer:  rec.Customer,
		IssueDate: issue,
		DueDate:   due,
		Total:     rec.Total,
		Currency:  deref(rec.Currency),
		Status:    model.InvoiceStatus(deref(rec.Status)),
		Notes:     deref(rec.Notes),
	}, nil
}

func (rec paymentRecord) payment() (model.Payment, error) {
	d, err := parseDate(rec.Date)
	if err != nil {
		return model.Payment{}, fmt.Errorf("payment %s date: %w", rec.Reference, err)
	}
	return model.Payment{
		Reference: rec.Reference,
		Customer:  rec.Customer,
		Date:      d,
		Amount:    rec.Amount,
		Currency:  deref(rec.Currency),
		Method:    deref(rec.Method),
		Invoice:   deref(rec.Invoice),
		Notes:     deref(rec.Notes),
	}, nil
}

// parseDate accepts a date or a timestamp and keeps only the calendar day.
// An empty value is the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if len(s) > len(model.DateFormat) {
		s = s[:len(model.DateFormat)]
	}
	return time.Parse(model.DateFormat, s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return optional(t.Format(model.DateFormat))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
