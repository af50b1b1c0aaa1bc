// Package render turns a statement into something a customer can read: a
// paginated PDF, a terminal table or a CSV export.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
)

// ErrCurrencyRequired is returned when a statement spans several currencies
// and no single one was chosen.
var ErrCurrencyRequired = errors.New("statement has more than one currency, choose one")

// NoTransactions is shown in place of rows for an empty period.
const NoTransactions = "No transactions in this period"

// Document is one single-currency statement ready for rendering.
type Document struct {
	Company     string
	Customer    string
	Period      statement.Period
	Currency    string
	GeneratedAt time.Time
	Rows        []model.LedgerRow
	Summary     model.Summary
}

// NewDocument selects one currency from st. An empty currency is allowed
// when the statement holds at most one; fallback names the currency of an
// empty statement.
func NewDocument(company string, st *statement.Statement, currency, fallback string) (Document, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		switch cs := st.Currencies(); len(cs) {
		case 0:
			currency = strings.ToUpper(fallback)
		case 1:
			currency = cs[0]
		default:
			return Document{}, fmt.Errorf("%w: %s", ErrCurrencyRequired, strings.Join(cs, ", "))
		}
	}
	return Document{
		Company:     company,
		Customer:    st.Customer,
		Period:      st.Period,
		Currency:    currency,
		GeneratedAt: st.GeneratedAt,
		Rows:        st.RowsFor(currency),
		Summary:     st.Summary(currency),
	}, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// amount renders zero debit or credit cells as blank.
func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return money(d)
}

func kindLabel(k model.EventKind) string {
	switch k {
	case model.KindInvoice:
		return "Invoice"
	case model.KindPayment:
		return "Payment"
	}
	return string(k)
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileName is the download name for a statement PDF.
func FileName(customer, currency string, generated time.Time) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(customer), "-"), "-")
	if slug == "" {
		slug = "customer"
	}
	return fmt.Sprintf("statement-%s-%s-%s.pdf", slug, strings.ToLower(currency), generated.Format("20060102"))
}
