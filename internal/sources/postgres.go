package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/billing"
	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
)

// Schema creates the tables the Postgres source reads.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	name     TEXT PRIMARY KEY,
	email    TEXT,
	phone    TEXT,
	address  TEXT,
	currency CHAR(3)
);
CREATE TABLE IF NOT EXISTS invoices (
	number     TEXT PRIMARY KEY,
	customer   TEXT NOT NULL,
	issue_date DATE NOT NULL,
	due_date   DATE,
	total      NUMERIC(18,2) NOT NULL CHECK (total >= 0),
	currency   CHAR(3),
	status     TEXT,
	notes      TEXT
);
CREATE INDEX IF NOT EXISTS invoices_customer_idx ON invoices (lower(customer), issue_date);
CREATE TABLE IF NOT EXISTS payments (
	reference TEXT PRIMARY KEY,
	customer  TEXT NOT NULL,
	date      DATE NOT NULL,
	amount    NUMERIC(18,2) NOT NULL CHECK (amount >= 0),
	currency  CHAR(3),
	method    TEXT,
	invoice   TEXT,
	notes     TEXT
);
CREATE INDEX IF NOT EXISTS payments_customer_idx ON payments (lower(customer), date);
`

const invoiceColumns = `number, customer, issue_date::text, COALESCE(due_date::text, ''), total::text,
	COALESCE(currency, ''), COALESCE(status, ''), COALESCE(notes, '')`

const paymentColumns = `reference, customer, date::text, amount::text,
	COALESCE(currency, ''), COALESCE(method, ''), COALESCE(invoice, ''), COALESCE(notes, '')`

// Postgres reads and writes the book in a PostgreSQL database.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens a pool for dsn and checks it with a ping.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// NewPostgres creates a Postgres source over an open pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// EnsureSchema creates the tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// InvoicesForCustomer queries the customer's invoices ordered by issue date.
func (p *Postgres) InvoicesForCustomer(ctx context.Context, customer string, order statement.SortOrder) ([]model.Invoice, error) {
	dir := "ASC"
	if order == statement.Descending {
		dir = "DESC"
	}
	sql := fmt.Sprintf(`SELECT %s FROM invoices WHERE lower(customer) = lower($1)
		ORDER BY issue_date %s, number LIMIT $2`, invoiceColumns, dir)

	rows, err := p.pool.Query(ctx, sql, customer, FetchLimit)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	invoices, err := pgx.CollectRows(rows, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("scanning invoices: %w", err)
	}
	if len(invoices) >= FetchLimit {
		p.logger.Warn("fetch limit reached, statement may be incomplete",
			zap.String("table", InvoicesTable), zap.String("customer", customer))
	}
	return invoices, nil
}

// PaymentsForCustomer queries the customer's payments.
func (p *Postgres) PaymentsForCustomer(ctx context.Context, customer string) ([]model.Payment, error) {
	sql := fmt.Sprintf(`SELECT %s FROM payments WHERE lower(customer) = lower($1)
		ORDER BY date, reference LIMIT $2`, paymentColumns)

	rows, err := p.pool.Query(ctx, sql, customer, FetchLimit)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scanning payments: %w", err)
	}
	if len(payments) >= FetchLimit {
		p.logger.Warn("fetch limit reached, statement may be incomplete",
			zap.String("table", PaymentsTable), zap.String("customer", customer))
	}
	return payments, nil
}

// LoadInvoices queries every invoice in the book.
func (p *Postgres) LoadInvoices(ctx context.Context) ([]model.Invoice, error) {
	sql := fmt.Sprintf(`SELECT %s FROM invoices ORDER BY number`, invoiceColumns)
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	invoices, err := pgx.CollectRows(rows, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("scanning invoices: %w", err)
	}
	return invoices, nil
}

// LoadPayments queries every payment in the book.
func (p *Postgres) LoadPayments(ctx context.Context) ([]model.Payment, error) {
	sql := fmt.Sprintf(`SELECT %s FROM payments ORDER BY reference`, paymentColumns)
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scanning payments: %w", err)
	}
	return payments, nil
}

// LoadCustomers queries the customer list.
func (p *Postgres) LoadCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := p.pool.Query(ctx, `SELECT name, COALESCE(email, ''), COALESCE(phone, ''),
		COALESCE(address, ''), COALESCE(currency, '') FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Customer, error) {
		var c model.Customer
		err := row.Scan(&c.Name, &c.Email, &c.Phone, &c.Address, &c.Currency)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning customers: %w", err)
	}
	return customers, nil
}

func (p *Postgres) AppendCustomer(ctx context.Context, c model.Customer) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO customers (name, email, phone, address, currency)
		VALUES ($1, $2, $3, $4, $5)`,
		c.Name, optional(c.Email), optional(c.Phone), optional(c.Address), optional(c.Currency))
	if err != nil {
		return fmt.Errorf("inserting customer %s: %w", c.Name, err)
	}
	return nil
}

func (p *Postgres) AppendInvoice(ctx context.Context, inv model.Invoice) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO invoices
		(number, customer, issue_date, due_date, total, currency, status, notes)
		VALUES ($1, $2, $3::date, $4::date, $5::numeric, $6, $7, $8)`,
		inv.Number, inv.Customer, inv.IssueDate.Format(model.DateFormat), optionalDate(inv.DueDate),
		inv.Total.String(), optional(inv.Currency), optional(string(inv.Status)), optional(inv.Notes))
	if err != nil {
		return fmt.Errorf("inserting invoice %s: %w", inv.Number, err)
	}
	return nil
}

func (p *Postgres) AppendPayment(ctx context.Context, pay model.Payment) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO payments
		(reference, customer, date, amount, currency, method, invoice, notes)
		VALUES ($1, $2, $3::date, $4::numeric, $5, $6, $7, $8)`,
		pay.Reference, pay.Customer, pay.Date.Format(model.DateFormat), pay.Amount.String(),
		optional(pay.Currency), optional(pay.Method), optional(pay.Invoice), optional(pay.Notes))
	if err != nil {
		return fmt.Errorf("inserting payment %s: %w", pay.Reference, err)
	}
	return nil
}

func (p *Postgres) UpdateInvoiceStatus(ctx context.Context, number string, status model.InvoiceStatus) error {
	tag, err := p.pool.Exec(ctx, `UPDATE invoices SET status = $2 WHERE number = $1`, number, string(status))
	if err != nil {
		return fmt.Errorf("updating invoice %s: %w", number, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", number, billing.ErrNotFound)
	}
	return nil
}

func (p *Postgres) DeletePayment(ctx context.Context, reference string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM payments WHERE reference = $1`, reference)
	if err != nil {
		return fmt.Errorf("deleting payment %s: %w", reference, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", reference, billing.ErrNotFound)
	}
	return nil
}

func scanInvoice(row pgx.CollectableRow) (model.Invoice, error) {
	var inv model.Invoice
	var issue, due, total, currency, status string
	if err := row.Scan(&inv.Number, &inv.Customer, &issue, &due, &total, &currency, &status, &inv.Notes); err != nil {
		return model.Invoice{}, err
	}
	var err error
	if inv.IssueDate, err = parseDate(issue); err != nil {
		return model.Invoice{}, fmt.Errorf("invoice %s issue_date: %w", inv.Number, err)
	}
	if inv.DueDate, err = parseDate(due); err != nil {
		return model.Invoice{}, fmt.Errorf("invoice %s due_date: %w", inv.Number, err)
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return model.Invoice{}, fmt.Errorf("invoice %s total: %w", inv.Number, err)
	}
	inv.Currency = currency
	inv.Status = model.InvoiceStatus(status)
	return inv, nil
}

func scanPayment(row pgx.CollectableRow) (model.Payment, error) {
	var p model.Payment
	var date, amount string
	if err := row.Scan(&p.Reference, &p.Customer, &date, &amount, &p.Currency, &p.Method, &p.Invoice, &p.Notes); err != nil {
		return model.Payment{}, err
	}
	var err error
	if p.Date, err = parseDate(date); err != nil {
		return model.Payment{}, fmt.Errorf("payment %s date: %w", p.Reference, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Payment{}, fmt.Errorf("payment %s amount: %w", p.Reference, err)
	}
	return p, nil
}
