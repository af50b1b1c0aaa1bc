package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/billing/internal/customers"
	"github.com/cleared-dev/billing/internal/model"
)

func testCustomers() *customers.Service {
	return customers.NewService([]model.Customer{
		{Name: "Acme Ltd", Currency: "ZAR"},
		{Name: "Globex Inc", Currency: "USD"},
	})
}

func validInvoice() model.Invoice {
	return model.Invoice{
		Number:    "INV-2024-0001",
		Customer:  "Acme Ltd",
		IssueDate: date(2024, 3, 5),
		DueDate:   date(2024, 4, 4),
		Total:     dec("100.00"),
		Currency:  "ZAR",
		Status:    model.InvoiceSent,
	}
}

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateInvoice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Invoice)
		want   []string
	}{
		{"valid", func(*model.Invoice) {}, nil},
		{"zero total", func(i *model.Invoice) { i.Total = dec("0") }, nil},
		{"lower-case customer match", func(i *model.Invoice) { i.Customer = "acme ltd" }, nil},
		{"no number", func(i *model.Invoice) { i.Number = "" }, []string{"number"}},
		{"unknown customer", func(i *model.Invoice) { i.Customer = "Nobody" }, []string{"customer"}},
		{"missing issue date", func(i *model.Invoice) { i.IssueDate = time.Time{}; i.DueDate = time.Time{} }, []string{"issue_date"}},
		{"due before issue", func(i *model.Invoice) { i.DueDate = date(2024, 3, 1) }, []string{"due_date"}},
		{"negative total", func(i *model.Invoice) { i.Total = dec("-1") }, []string{"total"}},
		{"three decimals", func(i *model.Invoice) { i.Total = dec("1.005") }, []string{"total"}},
		{"bad currency", func(i *model.Invoice) { i.Currency = "rand" }, []string{"currency"}},
		{"lower currency", func(i *model.Invoice) { i.Currency = "zar" }, []string{"currency"}},
		{"unknown status", func(i *model.Invoice) { i.Status = "void" }, []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(&inv)
			errs := ValidateInvoice(inv, nil, testCustomers())
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, fields(errs))
		})
	}
}

func TestValidateInvoice_Duplicate(t *testing.T) {
	inv := validInvoice()
	errs := ValidateInvoice(inv, []model.Invoice{inv}, testCustomers())
	assert.Equal(t, []string{"number"}, fields(errs))
	assert.Contains(t, errs[0].Error(), "already exists")
}

func TestValidatePayment(t *testing.T) {
	invoices := []model.Invoice{validInvoice()}
	valid := model.Payment{
		Reference: "PAY-2024-0001",
		Customer:  "Acme Ltd",
		Date:      date(2024, 3, 20),
		Amount:    dec("40"),
		Currency:  "ZAR",
		Invoice:   "INV-2024-0001",
	}

	tests := []struct {
		name   string
		mutate func(*model.Payment)
		want   []string
	}{
		{"valid", func(*model.Payment) {}, nil},
		{"unlinked", func(p *model.Payment) { p.Invoice = "" }, nil},
		{"no reference", func(p *model.Payment) { p.Reference = "" }, []string{"reference"}},
		{"zero amount", func(p *model.Payment) { p.Amount = dec("0") }, []string{"amount"}},
		{"negative amount", func(p *model.Payment) { p.Amount = dec("-5") }, []string{"amount"}},
		{"unknown invoice", func(p *model.Payment) { p.Invoice = "INV-2024-0099" }, []string{"invoice"}},
		{"other customer's invoice", func(p *model.Payment) { p.Customer = "Globex Inc" }, []string{"invoice"}},
		{"missing date", func(p *model.Payment) { p.Date = time.Time{} }, []string{"date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			errs := ValidatePayment(p, nil, invoices, testCustomers())
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, fields(errs))
		})
	}
}

func TestJoinErrors(t *testing.T) {
	err := joinErrors([]ValidationError{
		{Reference: "INV-1", Field: "total", Description: "bad"},
		{Reference: "INV-1", Field: "currency", Description: "worse"},
	})
	assert.EqualError(t, err, "validation failed: total [INV-1]: bad; currency [INV-1]: worse")
}
