package statement

import (
	"time"

	"github.com/cleared-dev/billing/internal/model"
)

// Statement is one generated customer statement.
type Statement struct {
	RunID       string            `json:"run_id"`
	Customer    string            `json:"customer"`
	Period      Period            `json:"period"`
	GeneratedAt time.Time         `json:"generated_at"`
	Rows        []model.LedgerRow `json:"rows"`
	Summaries   []model.Summary   `json:"summaries"`
}

// Currencies returns the currencies with at least one row.
func (s *Statement) Currencies() []string {
	return Currencies(s.Rows)
}

// Summary returns the summary for one currency, all zeros if it has no rows.
func (s *Statement) Summary(currency string) model.Summary {
	return Summarize(s.Rows, currency)
}

// RowsFor returns the rows of one currency.
func (s *Statement) RowsFor(currency string) []model.LedgerRow {
	return FilterCurrency(s.Rows, currency)
}
