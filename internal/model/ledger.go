package model

import "github.com/shopspring/decimal"

// DefaultCurrency is used when a document carries no currency.
const DefaultCurrency = "ZAR"

// DateFormat is the fixed-width date layout used for ledger dates. Ledger
// dates compare correctly as plain strings only in this form.
const DateFormat = "2006-01-02"

// EventKind says whether an event increases or decreases what the customer owes.
type EventKind string

const (
	KindInvoice EventKind = "invoice"
	KindPayment EventKind = "payment"
)

// FinancialEvent is an invoice or payment reduced to what the ledger needs.
// Amount is never negative; Kind decides the direction.
type FinancialEvent struct {
	Date      string // YYYY-MM-DD
	Kind      EventKind
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

// LedgerRow is one event with its effect on the running balance of its currency.
type LedgerRow struct {
	Date      string          `json:"date"`
	Kind      EventKind       `json:"kind"`
	Reference string          `json:"reference"`
	Debit     decimal.Decimal `json:"debit"`  // zero for payments
	Credit    decimal.Decimal `json:"credit"` // zero for invoices
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

// Summary holds the totals of one currency's ledger rows.
type Summary struct {
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalDebits    decimal.Decimal `json:"total_debits"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
	Rows           int             `json:"rows"`
}
