package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/billing/internal/model"
)

// ValidationError describes a single rule a document breaks.
type ValidationError struct {
	Reference   string
	Field       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Field, e.Reference, e.Description)
}

// CustomerLookup finds a customer by name.
type CustomerLookup interface {
	Get(name string) (model.Customer, bool)
}

var hundred = decimal.NewFromInt(100)

// ValidateInvoice checks inv against the invoices already in the book.
func ValidateInvoice(inv model.Invoice, existing []model.Invoice, customers CustomerLookup) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Reference: inv.Number, Field: field, Description: fmt.Sprintf(format, args...)})
	}

	if inv.Number == "" {
		add("number", "invoice number is required")
	}
	for _, e := range existing {
		if inv.Number != "" && e.Number == inv.Number {
			add("number", "invoice %s already exists", inv.Number)
			break
		}
	}
	if _, ok := customers.Get(inv.Customer); !ok {
		add("customer", "unknown customer %q", inv.Customer)
	}
	if inv.IssueDate.IsZero() {
		add("issue_date", "issue date is required")
	}
	if !inv.DueDate.IsZero() && inv.DueDate.Before(inv.IssueDate) {
		add("due_date", "due date %s is before issue date %s", formatDate(inv.DueDate), formatDate(inv.IssueDate))
	}
	if msg := checkAmount(inv.Total); msg != "" {
		add("total", "%s", msg)
	}
	if msg := checkCurrency(inv.Currency); msg != "" {
		add("currency", "%s", msg)
	}
	switch inv.Status {
	case "", model.InvoiceDraft, model.InvoiceSent, model.InvoicePaid, model.InvoiceCancelled:
	default:
		add("status", "unknown status %q", inv.Status)
	}
	return errs
}

// ValidatePayment checks p against the payments and invoices already in the book.
func ValidatePayment(p model.Payment, existing []model.Payment, invoices []model.Invoice, customers CustomerLookup) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Reference: p.Reference, Field: field, Description: fmt.Sprintf(format, args...)})
	}

	if p.Reference == "" {
		add("reference", "payment reference is required")
	}
	for _, e := range existing {
		if p.Reference != "" && e.Reference == p.Reference {
			add("reference", "payment %s already exists", p.Reference)
			break
		}
	}
	if _, ok := customers.Get(p.Customer); !ok {
		add("customer", "unknown customer %q", p.Customer)
	}
	if p.Date.IsZero() {
		add("date", "payment date is required")
	}
	if msg := checkAmount(p.Amount); msg != "" {
		add("amount", "%s", msg)
	} else if p.Amount.IsZero() {
		add("amount", "payment amount must be greater than zero")
	}
	if msg := checkCurrency(p.Currency); msg != "" {
		add("currency", "%s", msg)
	}
	if p.Invoice != "" {
		found := false
		for _, inv := range invoices {
			if inv.Number == p.Invoice {
				found = true
				if !SameCustomer(inv.Customer, p.Customer) {
					add("invoice", "invoice %s belongs to %q", inv.Number, inv.Customer)
				}
				break
			}
		}
		if !found {
			add("invoice", "unknown invoice %s", p.Invoice)
		}
	}
	return errs
}

// checkAmount enforces non-negative amounts with at most two decimal places.
func checkAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return fmt.Sprintf("amount %s is negative", d)
	}
	if !d.Mul(hundred).Equal(d.Mul(hundred).Floor()) {
		return fmt.Sprintf("amount %s has more than 2 decimal places", d)
	}
	return ""
}

func checkCurrency(c string) string {
	if c == "" {
		return ""
	}
	if len(c) != 3 || strings.ToUpper(c) != c || strings.Trim(c, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
		return fmt.Sprintf("currency %q is not a 3-letter ISO code", c)
	}
	return ""
}

func joinErrors(errs []ValidationError) error {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// SameCustomer compares customer names the way lookups do.
func SameCustomer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
