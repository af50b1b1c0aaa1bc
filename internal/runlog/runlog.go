// Package runlog records every statement generation in logs/statement-log.csv.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cleared-dev/billing/internal/statement"
)

// Outcomes of a generation run.
const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeFetchFailure = "fetch_failure"
	OutcomeError        = "error"
)

// Entry is one row in the statement log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Customer  string
	From      string
	To        string
	Rows      int
	Outcome   string
	Detail    string
}

// Header is the CSV header for statement-log.csv.
var Header = []string{"timestamp", "run_id", "customer", "from", "to", "rows", "outcome", "detail"}

const (
	numFields   = 8
	logDir      = "logs"
	logFile     = "statement-log.csv"
	colTime     = 0
	colRunID    = 1
	colCustomer = 2
	colFrom     = 3
	colTo       = 4
	colRows     = 5
	colOutcome  = 6
	colDetail   = 7
)

// Outcome classifies a generation error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, statement.ErrFetchFailure):
		return OutcomeFetchFailure
	case errors.Is(err, statement.ErrEmptyCustomer), errors.Is(err, statement.ErrInvalidDate):
		return OutcomeInvalid
	}
	var ie *statement.InvalidEventError
	if errors.As(err, &ie) {
		return OutcomeInvalid
	}
	return OutcomeError
}

// NewEntry describes the result of one generation. st may be nil on failure.
func NewEntry(now time.Time, customer string, period statement.Period, st *statement.Statement, err error) Entry {
	e := Entry{
		Timestamp: now,
		Customer:  customer,
		From:      period.From,
		To:        period.To,
		Outcome:   Outcome(err),
	}
	if st != nil {
		e.RunID = st.RunID
		e.Rows = len(st.Rows)
	}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colCustomer] = e.Customer
	row[colFrom] = e.From
	row[colTo] = e.To
	row[colRows] = strconv.Itoa(e.Rows)
	row[colOutcome] = e.Outcome
	row[colDetail] = e.Detail
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}
	rows, err := strconv.Atoi(record[colRows])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rows %q: %w", record[colRows], err)
	}
	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Customer:  record[colCustomer],
		From:      record[colFrom],
		To:        record[colTo],
		Rows:      rows,
		Outcome:   record[colOutcome],
		Detail:    record[colDetail],
	}, nil
}

// Log appends entries under a data directory. It is safe for concurrent use
// by the HTTP service.
type Log struct {
	dataDir string
	mu      sync.Mutex
}

// New creates a Log for dataDir.
func New(dataDir string) *Log {
	return &Log{dataDir: dataDir}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return filepath.Join(l.dataDir, logDir, logFile)
}

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(l.dataDir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := l.Path()
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening statement log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries. A missing file yields no entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening statement log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
