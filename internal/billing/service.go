package billing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/billing/internal/docnum"
	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
)

// Service records invoices and payments in a Store and serves them to the
// statement builder.
type Service struct {
	store     Store
	customers CustomerLookup
	mu        sync.Mutex
}

// NewService creates a billing Service.
func NewService(store Store, customers CustomerLookup) *Service {
	return &Service{store: store, customers: customers}
}

// AddInvoiceParams holds parameters for recording an invoice.
type AddInvoiceParams struct {
	Customer  string
	IssueDate time.Time
	DueDate   time.Time
	Total     decimal.Decimal
	Currency  string // defaults to the customer's currency
	Status    model.InvoiceStatus
	Notes     string
}

// AddInvoice allocates the next invoice number for the issue year, validates
// and appends the invoice. Returns the invoice number.
func (s *Service) AddInvoice(ctx context.Context, params AddInvoiceParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return "", err
	}

	numbers := make([]string, len(existing))
	for i, inv := range existing {
		numbers[i] = inv.Number
	}

	inv := model.Invoice{
		Number:    docnum.Next(numbers, docnum.InvoicePrefix, params.IssueDate.Year()),
		Customer:  strings.TrimSpace(params.Customer),
		IssueDate: params.IssueDate,
		DueDate:   params.DueDate,
		Total:     params.Total,
		Currency:  strings.ToUpper(strings.TrimSpace(params.Currency)),
		Status:    params.Status,
		Notes:     params.Notes,
	}
	if inv.Status == "" {
		inv.Status = model.InvoiceSent
	}
	if c, ok := s.customers.Get(inv.Customer); ok {
		inv.Customer = c.Name
		if inv.Currency == "" {
			inv.Currency = c.Currency
		}
	}

	if verrs := ValidateInvoice(inv, existing, s.customers); len(verrs) > 0 {
		return "", joinErrors(verrs)
	}

	if err := s.store.AppendInvoice(ctx, inv); err != nil {
		return "", err
	}
	return inv.Number, nil
}

// AddPaymentParams holds parameters for recording a payment.
type AddPaymentParams struct {
	Reference string // allocated when empty
	Customer  string
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string // defaults to the invoice's, then the customer's currency
	Method    string
	Invoice   string
	Notes     string
}

// AddPayment validates and appends a payment. Returns the payment reference.
func (s *Service) AddPayment(ctx context.Context, params AddPaymentParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.LoadPayments(ctx)
	if err != nil {
		return "", err
	}
	invoices, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return "", err
	}

	p := model.Payment{
		Reference: strings.TrimSpace(params.Reference),
		Customer:  strings.TrimSpace(params.Customer),
		Date:      params.Date,
		Amount:    params.Amount,
		Currency:  strings.ToUpper(strings.TrimSpace(params.Currency)),
		Method:    params.Method,
		Invoice:   strings.TrimSpace(params.Invoice),
		Notes:     params.Notes,
	}
	if p.Reference == "" {
		refs := make([]string, len(existing))
		for i, e := range existing {
			refs[i] = e.Reference
		}
		p.Reference = docnum.Next(refs, docnum.PaymentPrefix, p.Date.Year())
	}
	if c, ok := s.customers.Get(p.Customer); ok {
		p.Customer = c.Name
		if p.Currency == "" {
			p.Currency = c.Currency
		}
	}
	if p.Invoice != "" && params.Currency == "" {
		for _, inv := range invoices {
			if inv.Number == p.Invoice && inv.Currency != "" {
				p.Currency = inv.Currency
				break
			}
		}
	}

	if verrs := ValidatePayment(p, existing, invoices, s.customers); len(verrs) > 0 {
		return "", joinErrors(verrs)
	}

	if err := s.store.AppendPayment(ctx, p); err != nil {
		return "", err
	}
	return p.Reference, nil
}

// SetInvoiceStatus moves an invoice to a new lifecycle state.
func (s *Service) SetInvoiceStatus(ctx context.Context, number string, status model.InvoiceStatus) error {
	switch status {
	case model.InvoiceDraft, model.InvoiceSent, model.InvoicePaid, model.InvoiceCancelled:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(invoices, func(inv model.Invoice) bool { return inv.Number == number }) {
		return fmt.Errorf("invoice %s: %w", number, ErrNotFound)
	}
	return s.store.UpdateInvoiceStatus(ctx, number, status)
}

// DeletePayment removes a payment recorded in error.
func (s *Service) DeletePayment(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(payments, func(p model.Payment) bool { return p.Reference == reference }) {
		return fmt.Errorf("payment %s: %w", reference, ErrNotFound)
	}
	return s.store.DeletePayment(ctx, reference)
}

// Invoices returns every invoice in the book.
func (s *Service) Invoices(ctx context.Context) ([]model.Invoice, error) {
	return s.store.LoadInvoices(ctx)
}

// Payments returns every payment in the book.
func (s *Service) Payments(ctx context.Context) ([]model.Payment, error) {
	return s.store.LoadPayments(ctx)
}

// InvoicesForCustomer returns the customer's invoices in date order.
func (s *Service) InvoicesForCustomer(ctx context.Context, customer string, order statement.SortOrder) ([]model.Invoice, error) {
	all, err := s.store.LoadInvoices(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Invoice
	for _, inv := range all {
		if SameCustomer(inv.Customer, customer) {
			out = append(out, inv)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Invoice) int {
		if order == statement.Descending {
			return b.IssueDate.Compare(a.IssueDate)
		}
		return a.IssueDate.Compare(b.IssueDate)
	})
	return out, nil
}

// PaymentsForCustomer returns the customer's payments.
func (s *Service) PaymentsForCustomer(ctx context.Context, customer string) ([]model.Payment, error) {
	all, err := s.store.LoadPayments(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Payment
	for _, p := range all {
		if SameCustomer(p.Customer, customer) {
			out = append(out, p)
		}
	}
	return out, nil
}
