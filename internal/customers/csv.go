package customers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/billing/internal/model"
)

// Header is the CSV header for customers.csv.
var Header = []string{"name", "email", "phone", "address", "currency"}

const (
	numFields   = 5
	colName     = 0
	colEmail    = 1
	colPhone    = 2
	colAddress  = 3
	colCurrency = 4
)

// ReadCustomers reads customers.csv.
func ReadCustomers(r io.Reader) ([]model.Customer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading customers CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	customers := make([]model.Customer, 0, len(records)-1)
	for i, rec := range records[1:] {
		c, err := UnmarshalCustomer(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// WriteCustomers writes customers.csv including the header.
func WriteCustomers(w io.Writer, customers []model.Customer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, c := range customers {
		if err := cw.Write(MarshalCustomer(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCustomer converts a Customer to a CSV row.
func MarshalCustomer(c model.Customer) []string {
	row := make([]string, numFields)
	row[colName] = c.Name
	row[colEmail] = c.Email
	row[colPhone] = c.Phone
	row[colAddress] = c.Address
	row[colCurrency] = c.Currency
	return row
}

// UnmarshalCustomer converts a CSV row to a Customer.
func UnmarshalCustomer(record []string) (model.Customer, error) {
	if len(record) != numFields {
		return model.Customer{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colName] == "" {
		return model.Customer{}, fmt.Errorf("customer name is empty")
	}
	return model.Customer{
		Name:     record[colName],
		Email:    record[colEmail],
		Phone:    record[colPhone],
		Address:  record[colAddress],
		Currency: record[colCurrency],
	}, nil
}
