package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     "5f0c2d9e-0000-4000-8000-000000000001",
		Customer:  "Acme Ltd",
		From:      "2024-01-01",
		To:        "2024-12-31",
		Rows:      12,
		Outcome:   OutcomeOK,
	}
}

func TestAppend_NewFile(t *testing.T) {
	l := New(t.TempDir())
	require.NoError(t, l.Append(testEntry()))

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,run_id,customer,from,to,rows,outcome,detail\n")
}

func TestAppend_ExistingFile(t *testing.T) {
	l := New(t.TempDir())
	require.NoError(t, l.Append(testEntry()))

	e2 := testEntry()
	e2.Outcome = OutcomeFetchFailure
	e2.Detail = "fetching payments: connection refused, retry later"
	require.NoError(t, l.Append(e2))

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, OutcomeOK, entries[0].Outcome)
	assert.Equal(t, e2.Detail, entries[1].Detail)
}

func TestAppend_Concurrent(t *testing.T) {
	l := New(t.TempDir())
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := testEntry()
			e.Customer = fmt.Sprintf("Customer %d", i)
			assert.NoError(t, l.Append(e))
		}()
	}
	wg.Wait()

	entries, err := l.Read()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestRead_MissingFile(t *testing.T) {
	entries, err := New(t.TempDir()).Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRead_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	data := "timestamp,run_id,customer,from,to,rows,outcome,detail\n" +
		"2025-01-15T10:30:00Z,id,Acme,,,many,ok,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "statement-log.csv"), []byte(data), 0o644))

	_, err := New(dir).Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{&statement.FetchError{Source: "invoices", Err: os.ErrDeadlineExceeded}, OutcomeFetchFailure},
		{fmt.Errorf("building: %w", statement.ErrEmptyCustomer), OutcomeInvalid},
		{&statement.InvalidEventError{Reference: "INV-1", Description: "negative amount"}, OutcomeInvalid},
		{os.ErrPermission, OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "%v", tt.err)
	}
}

func TestNewEntry(t *testing.T) {
	st := &statement.Statement{
		RunID: "run-1",
		Rows:  []model.LedgerRow{{Reference: "INV-1"}, {Reference: "PAY-1"}},
	}
	e := NewEntry(testTime, "Acme Ltd", statement.Period{From: "2024-01-01"}, st, nil)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, 2, e.Rows)
	assert.Equal(t, OutcomeOK, e.Outcome)
	assert.Empty(t, e.Detail)

	e = NewEntry(testTime, "", statement.Period{}, nil, statement.ErrEmptyCustomer)
	assert.Equal(t, OutcomeInvalid, e.Outcome)
	assert.NotEmpty(t, e.Detail)
}
