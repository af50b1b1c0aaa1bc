package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cleared-dev/billing/internal/model"
)

// CSVHeader is the first line of a ledger export.
var CSVHeader = []string{"date", "type", "reference", "debit", "credit", "balance", "currency"}

// Table writes rows and their summary as a text table. Text columns are
// left-aligned and money columns right-aligned.
func Table(w io.Writer, rows []model.LedgerRow, s model.Summary) error {
	amounts := make([][3]string, len(rows))
	widths := [3]int{len("DEBIT"), len("CREDIT"), len("BALANCE")}
	for i, r := range rows {
		amounts[i] = [3]string{amount(r.Debit), amount(r.Credit), money(r.Balance)}
		for j, a := range amounts[i] {
			widths[j] = max(widths[j], len(a))
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "DATE\tTYPE\tREFERENCE\t%*s\t%*s\t%*s\n",
		widths[0], "DEBIT", widths[1], "CREDIT", widths[2], "BALANCE")
	if len(rows) == 0 {
		fmt.Fprintln(tw, NoTransactions)
	}
	for i, r := range rows {
		a := amounts[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%*s\t%*s\t%*s\n",
			r.Date, kindLabel(r.Kind), r.Reference, widths[0], a[0], widths[1], a[1], widths[2], a[2])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	totals := [][2]string{
		{"Opening balance", s.Currency + " " + money(s.OpeningBalance)},
		{"Total debits", s.Currency + " " + money(s.TotalDebits)},
		{"Total credits", s.Currency + " " + money(s.TotalCredits)},
		{"Closing balance", s.Currency + " " + money(s.ClosingBalance)},
	}
	width := 0
	for _, t := range totals {
		width = max(width, len(t[1]))
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%*s\n", t[0], width, t[1])
	}
	return tw.Flush()
}

// WriteCSV exports rows with a header line.
func WriteCSV(w io.Writer, rows []model.LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Date, string(r.Kind), r.Reference, money(r.Debit), money(r.Credit), money(r.Balance), r.Currency}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
