package commands_test

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBook creates a data directory with two customers and a few documents.
func setupBook(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	steps := [][]string{
		{"init", dir, "--name", "Test Biz", "--no-git"},
		{"customer", "add", "Acme Ltd", "--email", "ap@acme.test", "--repo", dir},
		{"customer", "add", "Globex Inc", "--currency", "USD", "--repo", dir},
		{"invoice", "add", "--customer", "Acme Ltd", "--date", "2024-03-05", "--total", "1000", "--repo", dir},
		{"invoice", "add", "--customer", "acme ltd", "--date", "2024-04-02", "--total", "350.50", "--repo", dir},
		{"invoice", "add", "--customer", "Acme Ltd", "--date", "2024-03-15", "--total", "80", "--currency", "USD", "--repo", dir},
		{"payment", "add", "--customer", "Acme Ltd", "--date", "2024-03-20", "--amount", "400", "--invoice", "INV-2024-0001", "--repo", dir},
	}
	for _, args := range steps {
		out, err := runBilling(t, args...)
		require.NoError(t, err, "billing %s: %s", strings.Join(args, " "), out)
	}
	return dir
}

func TestCustomerList(t *testing.T) {
	dir := setupBook(t)
	out, err := runBilling(t, "customer", "list", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Ltd")
	assert.Contains(t, out, "ap@acme.test")
	assert.Contains(t, out, "Globex Inc")

	out, err = runBilling(t, "customer", "add", "ACME LTD", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}

func TestInvoiceAdd_NumbersAndValidation(t *testing.T) {
	dir := setupBook(t)

	out, err := runBilling(t, "invoice", "add", "--customer", "Globex Inc", "--date", "2024-05-01", "--total", "10", "--repo", dir)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0004", strings.TrimSpace(lastLine(out)))

	out, err = runBilling(t, "invoice", "add", "--customer", "Nobody", "--total", "10", "--repo", dir)
	require.Error(t, err)
	assert.Contains(t, out, "unknown customer")

	out, err = runBilling(t, "invoice", "list", "--customer", "Globex Inc", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "INV-2024-0004")
	assert.NotContains(t, out, "INV-2024-0001")
}

func TestStatement_Table(t *testing.T) {
	dir := setupBook(t)
	out, err := runBilling(t, "statement", "--customer", "Acme Ltd", "--repo", dir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Statement for Acme Ltd, beginning to present (USD)")
	assert.Contains(t, out, "Statement for Acme Ltd, beginning to present (ZAR)")
	assert.Contains(t, out, "PAY-2024-0001")
	assert.Contains(t, out, "ZAR 950.50")
	assert.Contains(t, out, "USD 80.00")
}

func TestStatement_CSVForOneCurrency(t *testing.T) {
	dir := setupBook(t)
	out, err := runBilling(t, "statement", "--customer", "Acme Ltd", "--from", "2024-03-01", "--to", "2024-03-31",
		"--currency", "zar", "--format", "csv", "--log-level", "error", "--repo", dir)
	require.NoError(t, err, out)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "type", "reference", "debit", "credit", "balance", "currency"}, records[0])
	assert.Equal(t, []string{"2024-03-20", "payment", "PAY-2024-0001", "0.00", "400.00", "600.00", "ZAR"}, records[2])
}

func TestStatement_JSON(t *testing.T) {
	dir := setupBook(t)
	outFile := filepath.Join(t.TempDir(), "statement.json")
	_, err := runBilling(t, "statement", "--customer", "Acme Ltd", "--format", "json", "--out", outFile, "--repo", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var st struct {
		Customer  string `json:"customer"`
		Rows      []any  `json:"rows"`
		Summaries []struct {
			Currency string `json:"currency"`
		} `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "Acme Ltd", st.Customer)
	assert.Len(t, st.Rows, 4)
	require.Len(t, st.Summaries, 2)
	assert.Equal(t, "USD", st.Summaries[0].Currency)
}

func TestStatement_PDF(t *testing.T) {
	dir := setupBook(t)

	out, err := runBilling(t, "statement", "--customer", "Acme Ltd", "--format", "pdf", "--repo", dir)
	require.Error(t, err, "two currencies need --currency")
	assert.Contains(t, out, "more than one currency")

	out, err = runBilling(t, "statement", "--customer", "Acme Ltd", "--format", "pdf", "--currency", "ZAR", "--repo", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, filepath.Join(dir, "exports", "statement-acme-ltd-zar-"))

	matches, err := filepath.Glob(filepath.Join(dir, "exports", "statement-acme-ltd-zar-*.pdf"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestStatement_ErrorsAndLog(t *testing.T) {
	dir := setupBook(t)

	_, err := runBilling(t, "statement", "--customer", "Acme Ltd", "--from", "March", "--repo", dir)
	require.Error(t, err)

	_, err = runBilling(t, "statement", "--customer", "Acme Ltd", "--format", "xml", "--repo", dir)
	require.Error(t, err)

	out, err := runBilling(t, "statement", "--customer", "Acme Ltd", "--from", "2024-12-31", "--to", "2024-01-01", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions in this period")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "statement-log.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "only generated statements are logged")
	assert.Contains(t, lines[1], ",Acme Ltd,2024-12-31,2024-01-01,0,ok,")
}

func TestStatement_JSONEmptyPeriod(t *testing.T) {
	dir := setupBook(t)

	for _, period := range [][]string{
		{"--from", "2024-12-31", "--to", "2024-01-01"},
		{"--from", "2030-01-01"},
	} {
		args := append([]string{"statement", "--customer", "ACME LTD", "--format", "json", "--log-level", "error", "--repo", dir}, period...)
		out, err := runBilling(t, args...)
		require.NoError(t, err, out)

		var st struct {
			Customer  string `json:"customer"`
			Rows      []any  `json:"rows"`
			Summaries []struct {
				Currency       string `json:"currency"`
				ClosingBalance string `json:"closing_balance"`
				Rows           int    `json:"rows"`
			} `json:"summaries"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &st), out)
		assert.Equal(t, "Acme Ltd", st.Customer, "stored customer name")
		assert.Empty(t, st.Rows)
		require.Len(t, st.Summaries, 1)
		assert.Equal(t, "ZAR", st.Summaries[0].Currency)
		assert.Equal(t, "0", st.Summaries[0].ClosingBalance)
		assert.Zero(t, st.Summaries[0].Rows)
	}
}

func TestStatementLog(t *testing.T) {
	dir := setupBook(t)

	out, err := runBilling(t, "statement", "log", "--repo", dir)
	require.NoError(t, err, out)
	assert.Equal(t, 1, len(strings.Split(strings.TrimSpace(out), "\n")), "header only")

	for _, customer := range []string{"Acme Ltd", "Globex Inc", "Acme Ltd"} {
		_, err := runBilling(t, "statement", "--customer", customer, "--format", "csv", "--log-level", "error", "--repo", dir)
		require.NoError(t, err)
	}
	_, err = runBilling(t, "statement", "--customer", "Acme Ltd", "--from", "2024-06-01", "--to", "2024-06-30",
		"--format", "csv", "--log-level", "error", "--repo", dir)
	require.NoError(t, err)

	out, err = runBilling(t, "statement", "log", "--customer", "acme ltd", "--repo", dir)
	require.NoError(t, err, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "OUTCOME")
	assert.Contains(t, lines[1], "beginning to present")
	assert.Contains(t, lines[3], "2024-06-01 to 2024-06-30")
	assert.NotContains(t, out, "Globex Inc")

	out, err = runBilling(t, "statement", "log", "--limit", "1", "--repo", dir)
	require.NoError(t, err, out)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2024-06-01")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
