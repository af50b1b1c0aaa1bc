package statement

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/billing/internal/model"
)

// SortOrder is the date order a reader is asked to return documents in.
// The builder re-sorts, so readers may ignore it.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// InvoiceReader returns every invoice billed to a customer.
type InvoiceReader interface {
	InvoicesForCustomer(ctx context.Context, customer string, order SortOrder) ([]model.Invoice, error)
}

// PaymentReader returns every payment received from a customer.
type PaymentReader interface {
	PaymentsForCustomer(ctx context.Context, customer string) ([]model.Payment, error)
}

// CustomerLookup resolves a customer name to the stored customer.
type CustomerLookup interface {
	Get(name string) (model.Customer, bool)
}

// Builder turns a customer's invoices and payments into a running-balance
// ledger. It holds no state between calls.
type Builder struct {
	invoices        InvoiceReader
	payments        PaymentReader
	customers       CustomerLookup
	defaultCurrency string
	logger          *zap.Logger
	now             func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithDefaultCurrency sets the currency assumed for documents without one.
func WithDefaultCurrency(currency string) Option {
	return func(b *Builder) {
		if c := normalizeCurrency(currency); c != "" {
			b.defaultCurrency = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithCustomers makes generated statements carry the customer's stored name
// rather than the name as requested.
func WithCustomers(customers CustomerLookup) Option {
	return func(b *Builder) { b.customers = customers }
}

// WithClock overrides the clock used to stamp generated statements.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder over the two readers.
func NewBuilder(invoices InvoiceReader, payments PaymentReader, opts ...Option) *Builder {
	b := &Builder{
		invoices:        invoices,
		payments:        payments,
		defaultCurrency: model.DefaultCurrency,
		logger:          zap.NewNop(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildLedger fetches the customer's invoices and payments, keeps those dated
// within period and returns them in date order with a running balance kept
// separately for each currency.
//
// A reversed period returns an empty ledger without fetching. If either
// fetch fails the error is a *FetchError and no rows are returned.
func (b *Builder) BuildLedger(ctx context.Context, customer string, period Period) ([]model.LedgerRow, error) {
	customer = b.customerName(customer)
	if customer == "" {
		return nil, ErrEmptyCustomer
	}
	if period.Reversed() {
		b.logger.Debug("reversed period, returning empty ledger",
			zap.String("customer", customer),
			zap.String("from", period.From),
			zap.String("to", period.To))
		return []model.LedgerRow{}, nil
	}

	invoices, payments, err := b.fetch(ctx, customer)
	if err != nil {
		return nil, err
	}

	events, err := b.events(invoices, payments)
	if err != nil {
		return nil, err
	}

	inPeriod := events[:0]
	for _, ev := range events {
		if period.Contains(ev.Date) {
			inPeriod = append(inPeriod, ev)
		}
	}
	sortEvents(inPeriod)

	rows := runningBalance(inPeriod)
	b.logger.Debug("ledger built",
		zap.String("customer", customer),
		zap.Int("invoices", len(invoices)),
		zap.Int("payments", len(payments)),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// Generate builds the ledger and its per-currency summaries.
func (b *Builder) Generate(ctx context.Context, customer string, period Period) (*Statement, error) {
	rows, err := b.BuildLedger(ctx, customer, period)
	if err != nil {
		return nil, err
	}
	return &Statement{
		RunID:       uuid.NewString(),
		Customer:    b.customerName(customer),
		Period:      period,
		GeneratedAt: b.now(),
		Rows:        rows,
		Summaries:   SummarizeAll(rows),
	}, nil
}

func (b *Builder) customerName(customer string) string {
	customer = strings.TrimSpace(customer)
	if b.customers != nil {
		if c, ok := b.customers.Get(customer); ok {
			return c.Name
		}
	}
	return customer
}

func (b *Builder) fetch(ctx context.Context, customer string) ([]model.Invoice, []model.Payment, error) {
	var (
		invoices []model.Invoice
		payments []model.Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		inv, err := b.invoices.InvoicesForCustomer(gctx, customer, Ascending)
		if err != nil {
			return &FetchError{Source: "invoices", Err: err}
		}
		invoices = inv
		return nil
	})
	g.Go(func() error {
		pay, err := b.payments.PaymentsForCustomer(gctx, customer)
		if err != nil {
			return &FetchError{Source: "payments", Err: err}
		}
		payments = pay
		return nil
	})

	if err := g.Wait(); err != nil {
		b.logger.Warn("statement fetch failed", zap.String("customer", customer), zap.Error(err))
		return nil, nil, err
	}
	return invoices, payments, nil
}

func (b *Builder) events(invoices []model.Invoice, payments []model.Payment) ([]model.FinancialEvent, error) {
	events := make([]model.FinancialEvent, 0, len(invoices)+len(payments))
	for _, inv := range invoices {
		ev, err := b.event(model.KindInvoice, inv.Number, inv.IssueDate, inv.Total, inv.Currency)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	for _, p := range payments {
		ev, err := b.event(model.KindPayment, p.Reference, p.Date, p.Amount, p.Currency)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (b *Builder) event(kind model.EventKind, ref string, date time.Time, amount decimal.Decimal, currency string) (model.FinancialEvent, error) {
	if date.IsZero() {
		return model.FinancialEvent{}, &InvalidEventError{Reference: ref, Description: string(kind) + " has no date"}
	}
	if amount.IsNegative() {
		return model.FinancialEvent{}, &InvalidEventError{
			Reference:   ref,
			Description: string(kind) + " amount " + amount.StringFixed(2) + " is negative",
		}
	}
	c := normalizeCurrency(currency)
	if c == "" {
		c = b.defaultCurrency
	}
	return model.FinancialEvent{
		Date:      date.Format(model.DateFormat),
		Kind:      kind,
		Reference: ref,
		Amount:    amount,
		Currency:  c,
	}, nil
}

// sortEvents orders by date, then invoices before payments, then reference.
// Events equal on all three keep their fetch order.
func sortEvents(events []model.FinancialEvent) {
	slices.SortStableFunc(events, func(a, b model.FinancialEvent) int {
		return cmp.Or(
			cmp.Compare(a.Date, b.Date),
			cmp.Compare(kindRank(a.Kind), kindRank(b.Kind)),
			cmp.Compare(a.Reference, b.Reference),
		)
	})
}

func kindRank(k model.EventKind) int {
	if k == model.KindInvoice {
		return 0
	}
	return 1
}

// runningBalance keeps one balance per currency while walking the sorted
// events, so the merged sequence filtered to a currency is exactly that
// currency's own ledger.
func runningBalance(events []model.FinancialEvent) []model.LedgerRow {
	balances := make(map[string]decimal.Decimal)
	rows := make([]model.LedgerRow, 0, len(events))
	for _, ev := range events {
		row := model.LedgerRow{
			Date:      ev.Date,
			Kind:      ev.Kind,
			Reference: ev.Reference,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
			Currency:  ev.Currency,
		}
		if ev.Kind == model.KindInvoice {
			row.Debit = ev.Amount
		} else {
			row.Credit = ev.Amount
		}
		bal := balances[ev.Currency].Add(row.Debit).Sub(row.Credit)
		balances[ev.Currency] = bal
		row.Balance = bal
		rows = append(rows, row)
	}
	return rows
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
