package statement

import (
	"fmt"
	"time"

	"github.com/cleared-dev/billing/internal/model"
)

// Open bounds used when a period side is not given.
const (
	MinDate = "0000-01-01"
	MaxDate = "9999-12-31"
)

// Period is an inclusive date window in YYYY-MM-DD form. An empty side is open.
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewPeriod validates both bounds. Empty strings are allowed and mean open.
// A reversed period is valid and yields an empty ledger.
func NewPeriod(from, to string) (Period, error) {
	for _, s := range []string{from, to} {
		if s == "" {
			continue
		}
		if _, err := time.Parse(model.DateFormat, s); err != nil {
			return Period{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, s)
		}
	}
	return Period{From: from, To: to}, nil
}

func (p Period) lower() string {
	if p.From == "" {
		return MinDate
	}
	return p.From
}

func (p Period) upper() string {
	if p.To == "" {
		return MaxDate
	}
	return p.To
}

// Reversed reports whether From is after To.
func (p Period) Reversed() bool {
	return p.lower() > p.upper()
}

// Contains reports whether date (YYYY-MM-DD) lies within the period, inclusive.
func (p Period) Contains(date string) bool {
	return p.lower() <= date && date <= p.upper()
}

// String renders the period for headers and logs.
func (p Period) String() string {
	from, to := p.From, p.To
	if from == "" {
		from = "beginning"
	}
	if to == "" {
		to = "present"
	}
	return from + " to " + to
}
