package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice is a billed document. Total is what the customer owes.
type Invoice struct {
	Number    string // "INV-YYYY-NNNN"
	Customer  string
	IssueDate time.Time
	DueDate   time.Time // zero if not set
	Total     decimal.Decimal
	Currency  string // empty means the book's default currency
	Status    InvoiceStatus
	Notes     string
}

// Payment is money received from a customer.
type Payment struct {
	Reference string // "PAY-YYYY-NNNN" or an external reference
	Customer  string
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string
	Method    string // eft, cash, card...
	Invoice   string // optional invoice number the payment was allocated to
	Notes     string
}
