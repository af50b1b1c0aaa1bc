package billing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
)

func copyFixture(t *testing.T, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("../../testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestInit_CreatesHeaders(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	svc := NewService(store, testCustomers())
	require.NoError(t, store.Init())

	data, err := os.ReadFile(filepath.Join(dir, InvoicesFile))
	require.NoError(t, err)
	assert.Equal(t, "number,customer,issue_date,due_date,total,currency,status,notes\n", string(data))

	// Init on an existing book leaves it alone.
	copyFixture(t, dir, PaymentsFile)
	require.NoError(t, store.Init())
	payments, err := svc.Payments(context.Background())
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestMissingFiles_EmptyBook(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewFileStore(t.TempDir()), testCustomers())
	invoices, err := svc.Invoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, invoices)

	payments, err := svc.PaymentsForCustomer(ctx, "Acme Ltd")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestAddInvoice_AllocatesNumbers(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewFileStore(t.TempDir()), testCustomers())

	n1, err := svc.AddInvoice(ctx, AddInvoiceParams{Customer: "acme ltd", IssueDate: date(2024, 1, 10), Total: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0001", n1)

	n2, err := svc.AddInvoice(ctx, AddInvoiceParams{Customer: "Acme Ltd", IssueDate: date(2024, 2, 10), Total: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0002", n2)

	n3, err := svc.AddInvoice(ctx, AddInvoiceParams{Customer: "Acme Ltd", IssueDate: date(2025, 1, 2), Total: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", n3)

	invoices, err := svc.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, "Acme Ltd", invoices[0].Customer, "name canonicalized to the customer list")
	assert.Equal(t, "ZAR", invoices[0].Currency, "currency taken from the customer")
	assert.Equal(t, model.InvoiceSent, invoices[0].Status)
}

func TestAddInvoice_ValidationFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := NewService(NewFileStore(dir), testCustomers())

	_, err := svc.AddInvoice(ctx, AddInvoiceParams{Customer: "Nobody", IssueDate: date(2024, 1, 10), Total: dec("-1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "unknown customer")
	assert.Contains(t, err.Error(), "negative")

	_, statErr := os.Stat(filepath.Join(dir, InvoicesFile))
	assert.True(t, os.IsNotExist(statErr), "nothing written on failure")
}

func TestAddPayment(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	copyFixture(t, dir, InvoicesFile)
	svc := NewService(NewFileStore(dir), testCustomers())

	ref, err := svc.AddPayment(ctx, AddPaymentParams{
		Customer: "Globex Inc",
		Date:     date(2024, 4, 1),
		Amount:   dec("10"),
		Invoice:  "INV-2024-0002",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-2024-0001", ref)

	ref, err = svc.AddPayment(ctx, AddPaymentParams{
		Reference: "EFT-778",
		Customer:  "Acme Ltd",
		Date:      date(2024, 4, 2),
		Amount:    dec("20"),
		Currency:  "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "EFT-778", ref)

	payments, err := svc.Payments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "USD", payments[0].Currency)
	assert.Equal(t, "USD", payments[1].Currency, "explicit currency wins over the customer's")

	_, err = svc.AddPayment(ctx, AddPaymentParams{Reference: "EFT-778", Customer: "Acme Ltd", Date: date(2024, 4, 3), Amount: dec("1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInvoicesForCustomer_Order(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, InvoicesFile)
	svc := NewService(NewFileStore(dir), testCustomers())
	ctx := context.Background()

	asc, err := svc.InvoicesForCustomer(ctx, "ACME LTD", statement.Ascending)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "INV-2024-0001", asc[0].Number)
	assert.Equal(t, "INV-2024-0003", asc[1].Number)

	desc, err := svc.InvoicesForCustomer(ctx, "Acme Ltd", statement.Descending)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "INV-2024-0003", desc[0].Number)
}

func TestService_FeedsBuilder(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, InvoicesFile)
	copyFixture(t, dir, PaymentsFile)
	svc := NewService(NewFileStore(dir), testCustomers())

	rows, err := statement.NewBuilder(svc, svc).BuildLedger(context.Background(), "Acme Ltd", statement.Period{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "INV-2024-0001", rows[0].Reference)
	assert.Equal(t, "PAY-2024-0001", rows[1].Reference)
	assert.Equal(t, "INV-2024-0003", rows[2].Reference)
	assert.True(t, rows[2].Balance.Equal(dec("950.50")))
	assert.Equal(t, "ZAR", rows[2].Currency, "blank currency defaults")
}

func TestCancelledContext(t *testing.T) {
	svc := NewService(NewFileStore(t.TempDir()), testCustomers())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.InvoicesForCustomer(ctx, "Acme Ltd", statement.Ascending)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetInvoiceStatus(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, InvoicesFile)
	svc := NewService(NewFileStore(dir), testCustomers())
	ctx := context.Background()

	require.NoError(t, svc.SetInvoiceStatus(ctx, "INV-2024-0003", model.InvoiceSent))

	invoices, err := svc.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, model.InvoiceSent, invoices[2].Status)
	assert.Equal(t, model.InvoiceSent, invoices[0].Status, "other rows untouched")
	assert.True(t, invoices[2].Total.Equal(dec("350.50")))

	err = svc.SetInvoiceStatus(ctx, "INV-2024-0099", model.InvoicePaid)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.SetInvoiceStatus(ctx, "INV-2024-0001", "overdue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestDeletePayment(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, PaymentsFile)
	svc := NewService(NewFileStore(dir), testCustomers())
	ctx := context.Background()

	require.NoError(t, svc.DeletePayment(ctx, "PAY-2024-0001"))

	payments, err := svc.Payments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "PAY-2024-0002", payments[0].Reference)

	assert.ErrorIs(t, svc.DeletePayment(ctx, "PAY-2024-0001"), ErrNotFound)
}
