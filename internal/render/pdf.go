package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/cleared-dev/billing/internal/model"
)

// Column layout of the transaction table, in millimetres on A4 portrait.
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 24, "L"},
	{"Type", 22, "L"},
	{"Reference", 46, "L"},
	{"Debit", 30, "R"},
	{"Credit", 30, "R"},
	{"Balance", 30, "R"},
}

const (
	pdfMargin    = 15.0
	pdfRowHeight = 6.0
)

// PDF writes doc as a paginated A4 statement. The table header repeats on
// every page and each page carries a "Page n of m" footer.
func PDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+5)
	pdf.AliasNbPages("{nb}")
	pdf.SetTitle(fmt.Sprintf("Statement for %s", doc.Customer), true)
	pdf.SetCreator(doc.Company, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	inTable := false
	pdf.SetHeaderFunc(func() {
		if inTable && pdf.PageNo() > 1 {
			pdfTableHeader(pdf)
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(tableWidth()/2, 5, tr(doc.Customer), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	// Header block.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(doc.Company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Statement of Account", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	for _, kv := range [][2]string{
		{"Customer", doc.Customer},
		{"Period", doc.Period.String()},
		{"Currency", doc.Currency},
		{"Generated", doc.GeneratedAt.Format(model.DateFormat)},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block.
	s := doc.Summary
	pdf.SetFillColor(240, 240, 240)
	for _, kv := range [][2]string{
		{"Opening balance", money(s.OpeningBalance)},
		{"Total debits", money(s.TotalDebits)},
		{"Total credits", money(s.TotalCredits)},
		{"Closing balance", money(s.ClosingBalance)},
	} {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(50, 6, kv[0], "", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, doc.Currency+" "+kv[1], "", 1, "R", true, 0, "")
	}
	pdf.Ln(6)

	// Transactions.
	pdfTableHeader(pdf)
	inTable = true
	pdf.SetFont("Helvetica", "", 9)
	if len(doc.Rows) == 0 {
		pdf.CellFormat(tableWidth(), pdfRowHeight, NoTransactions, "1", 1, "C", false, 0, "")
	}
	for i, r := range doc.Rows {
		fill := i%2 == 1
		pdf.SetFillColor(248, 248, 248)
		cells := []string{r.Date, kindLabel(r.Kind), tr(r.Reference), amount(r.Debit), amount(r.Credit), money(r.Balance)}
		for j, c := range pdfColumns {
			pdf.CellFormat(c.width, pdfRowHeight, cells[j], "LR", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.CellFormat(tableWidth(), 0, "", "T", 1, "", false, 0, "")
	inTable = false

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func pdfTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(50, 60, 80)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, pdfRowHeight+1, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
}

func tableWidth() float64 {
	var w float64
	for _, c := range pdfColumns {
		w += c.width
	}
	return w
}
