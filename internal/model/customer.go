package model

// Customer represents a row in customers.csv. Name is the lookup key used by
// invoices and payments.
type Customer struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Currency string // preferred billing currency, may be empty
}
