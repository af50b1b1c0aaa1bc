package statement

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/billing/internal/model"
)

// Summarize totals the rows of one currency. With no matching rows every
// figure is zero. The opening balance is the balance before the first row,
// so Closing == Opening + TotalDebits - TotalCredits always holds.
func Summarize(rows []model.LedgerRow, currency string) model.Summary {
	currency = normalizeCurrency(currency)
	s := model.Summary{
		Currency:       currency,
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.Zero,
		TotalDebits:    decimal.Zero,
		TotalCredits:   decimal.Zero,
	}

	first := true
	for _, row := range rows {
		if row.Currency != currency {
			continue
		}
		if first {
			s.OpeningBalance = row.Balance.Sub(row.Debit).Add(row.Credit)
			first = false
		}
		s.ClosingBalance = row.Balance
		s.TotalDebits = s.TotalDebits.Add(row.Debit)
		s.TotalCredits = s.TotalCredits.Add(row.Credit)
		s.Rows++
	}
	return s
}

// SummarizeAll returns one summary per currency present, ordered by code.
func SummarizeAll(rows []model.LedgerRow) []model.Summary {
	currencies := Currencies(rows)
	out := make([]model.Summary, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, Summarize(rows, c))
	}
	return out
}

// Currencies returns the distinct currency codes in rows, sorted.
func Currencies(rows []model.LedgerRow) []string {
	var out []string
	for _, row := range rows {
		if !slices.Contains(out, row.Currency) {
			out = append(out, row.Currency)
		}
	}
	slices.Sort(out)
	return out
}

// FilterCurrency returns the rows of one currency, in order.
func FilterCurrency(rows []model.LedgerRow, currency string) []model.LedgerRow {
	currency = normalizeCurrency(currency)
	out := make([]model.LedgerRow, 0, len(rows))
	for _, row := range rows {
		if row.Currency == currency {
			out = append(out, row)
		}
	}
	return out
}
