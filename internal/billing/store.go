package billing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/billing/internal/model"
)

// File names inside a data directory.
const (
	InvoicesFile = "invoices.csv"
	PaymentsFile = "payments.csv"
)

// ErrNotFound is returned when a document to change does not exist.
var ErrNotFound = errors.New("not found")

// Store persists invoices and payments.
type Store interface {
	LoadInvoices(ctx context.Context) ([]model.Invoice, error)
	LoadPayments(ctx context.Context) ([]model.Payment, error)
	AppendInvoice(ctx context.Context, inv model.Invoice) error
	AppendPayment(ctx context.Context, p model.Payment) error
	UpdateInvoiceStatus(ctx context.Context, number string, status model.InvoiceStatus) error
	DeletePayment(ctx context.Context, reference string) error
}

// FileStore keeps invoices and payments as CSV files in a data directory.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

// Init creates empty invoice and payment files with headers if missing.
func (f *FileStore) Init() error {
	if err := f.ensureFile(InvoicesFile, InvoiceHeader); err != nil {
		return err
	}
	return f.ensureFile(PaymentsFile, PaymentHeader)
}

// LoadInvoices reads invoices.csv. A missing file is an empty book.
func (f *FileStore) LoadInvoices(ctx context.Context) ([]model.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := f.open(InvoicesFile)
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	invoices, err := ReadInvoices(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", InvoicesFile, err)
	}
	return invoices, nil
}

// LoadPayments reads payments.csv. A missing file is an empty book.
func (f *FileStore) LoadPayments(ctx context.Context) ([]model.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := f.open(PaymentsFile)
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	payments, err := ReadPayments(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", PaymentsFile, err)
	}
	return payments, nil
}

func (f *FileStore) AppendInvoice(ctx context.Context, inv model.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.appendRow(InvoicesFile, InvoiceHeader, MarshalInvoice(inv))
}

func (f *FileStore) AppendPayment(ctx context.Context, p model.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.appendRow(PaymentsFile, PaymentHeader, MarshalPayment(p))
}

// UpdateInvoiceStatus rewrites invoices.csv with the invoice's new status.
func (f *FileStore) UpdateInvoiceStatus(ctx context.Context, number string, status model.InvoiceStatus) error {
	invoices, err := f.LoadInvoices(ctx)
	if err != nil {
		return err
	}
	found := false
	rows := make([][]string, 0, len(invoices)+1)
	rows = append(rows, InvoiceHeader)
	for _, inv := range invoices {
		if inv.Number == number {
			inv.Status = status
			found = true
		}
		rows = append(rows, MarshalInvoice(inv))
	}
	if !found {
		return fmt.Errorf("invoice %s: %w", number, ErrNotFound)
	}
	return f.rewrite(InvoicesFile, rows)
}

// DeletePayment rewrites payments.csv without the payment.
func (f *FileStore) DeletePayment(ctx context.Context, reference string) error {
	payments, err := f.LoadPayments(ctx)
	if err != nil {
		return err
	}
	found := false
	rows := make([][]string, 0, len(payments)+1)
	rows = append(rows, PaymentHeader)
	for _, p := range payments {
		if p.Reference == reference {
			found = true
			continue
		}
		rows = append(rows, MarshalPayment(p))
	}
	if !found {
		return fmt.Errorf("payment %s: %w", reference, ErrNotFound)
	}
	return f.rewrite(PaymentsFile, rows)
}

func (f *FileStore) open(name string) (*os.File, error) {
	path := filepath.Join(f.dataDir, name)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return file, nil
}

func (f *FileStore) ensureFile(name string, header []string) error {
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(f.dataDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()
	if err := AppendRows(file, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

func (f *FileStore) appendRow(name string, header, row []string) error {
	if err := f.ensureFile(name, header); err != nil {
		return err
	}
	path := filepath.Join(f.dataDir, name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	if err := AppendRows(file, row); err != nil {
		return fmt.Errorf("appending to %s: %w", name, err)
	}
	return nil
}

// rewrite replaces a file through a temp file and rename.
func (f *FileStore) rewrite(name string, rows [][]string) error {
	path := filepath.Join(f.dataDir, name)
	tmp, err := os.CreateTemp(f.dataDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := AppendRows(tmp, rows...); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
