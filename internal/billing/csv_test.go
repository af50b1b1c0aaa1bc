package billing

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/billing/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestInvoiceRoundTrip(t *testing.T) {
	inv := model.Invoice{
		Number:    "INV-2024-0001",
		Customer:  "Acme Ltd",
		IssueDate: date(2024, 3, 5),
		DueDate:   date(2024, 4, 4),
		Total:     dec("1000.5"),
		Currency:  "ZAR",
		Status:    model.InvoiceSent,
		Notes:     `Consulting, "phase 1"`,
	}

	row := MarshalInvoice(inv)
	assert.Equal(t, "1000.50", row[invTotal], "StringFixed(2) should keep trailing zero")
	assert.Equal(t, "2024-03-05", row[invIssueDate])

	got, err := UnmarshalInvoice(row)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
	assert.True(t, inv.IssueDate.Equal(got.IssueDate))
	assert.True(t, inv.DueDate.Equal(got.DueDate))
	assert.True(t, inv.Total.Equal(got.Total))
	assert.Equal(t, inv.Notes, got.Notes)
	assert.Equal(t, inv.Status, got.Status)
}

func TestInvoice_EmptyOptionalFields(t *testing.T) {
	inv := model.Invoice{Number: "INV-2024-0002", Customer: "Acme Ltd", IssueDate: date(2024, 1, 1), Total: dec("5")}
	row := MarshalInvoice(inv)
	assert.Empty(t, row[invDueDate])
	assert.Empty(t, row[invCurrency])

	got, err := UnmarshalInvoice(row)
	require.NoError(t, err)
	assert.True(t, got.DueDate.IsZero())
	assert.Empty(t, got.Currency)
}

func TestPaymentRoundTrip(t *testing.T) {
	p := model.Payment{
		Reference: "PAY-2024-0001",
		Customer:  "Acme Ltd",
		Date:      date(2024, 3, 20),
		Amount:    dec("400"),
		Currency:  "ZAR",
		Method:    "eft",
		Invoice:   "INV-2024-0001",
	}

	var buf bytes.Buffer
	require.NoError(t, AppendRows(&buf, PaymentHeader, MarshalPayment(p)))

	got, err := ReadPayments(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.Reference, got[0].Reference)
	assert.True(t, p.Date.Equal(got[0].Date))
	assert.True(t, p.Amount.Equal(got[0].Amount))
	assert.Equal(t, p.Invoice, got[0].Invoice)
	assert.Equal(t, p.Method, got[0].Method)
}

func TestUnmarshal_BadFields(t *testing.T) {
	_, err := UnmarshalInvoice([]string{"INV-1", "Acme", "05/03/2024", "", "1", "", "", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing issue_date")

	_, err = UnmarshalInvoice([]string{"INV-1", "Acme", "2024-03-05", "", "ten", "", "", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing total")

	_, err = UnmarshalPayment([]string{"PAY-1", "Acme", "2024-03-05", "x", "", "", "", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")

	_, err = UnmarshalPayment([]string{"PAY-1"})
	assert.Error(t, err)
}

func TestReadInvoices_RowNumberInError(t *testing.T) {
	data := strings.Join(InvoiceHeader, ",") + "\n" +
		"INV-1,Acme,2024-03-05,,1.00,,,\n" +
		"INV-2,Acme,not-a-date,,1.00,,,\n"
	_, err := ReadInvoices(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/invoices.csv")
	require.NoError(t, err)
	defer f.Close()

	invoices, err := ReadInvoices(f)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, "Site visit, travel", invoices[2].Notes)
	assert.True(t, invoices[2].Total.Equal(dec("350.50")))

	pf, err := os.Open("../../testdata/payments.csv")
	require.NoError(t, err)
	defer pf.Close()

	payments, err := ReadPayments(pf)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "card", payments[1].Method)
}
