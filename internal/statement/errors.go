package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailure matches any *FetchError.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrEmptyCustomer is returned when no customer name is given.
	ErrEmptyCustomer = errors.New("customer name is required")
	// ErrInvalidDate is returned for a period bound that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)

// FetchError reports that one of the readers failed. No partial ledger is
// produced when this happens.
type FetchError struct {
	Source string // "invoices" or "payments"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetchFailure) match.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailure }

// InvalidEventError reports a fetched document that cannot be put on a ledger,
// e.g. a negative total.
type InvalidEventError struct {
	Reference   string
	Description string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid event [%s]: %s", e.Reference, e.Description)
}
