package docnum

import (
	"fmt"
	"strconv"
	"strings"
)

// Document number prefixes.
const (
	InvoicePrefix = "INV"
	PaymentPrefix = "PAY"
)

// Format returns a document number like "INV-2025-0001".
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

// Parse parses "INV-2025-0001" into prefix, year, seq.
func Parse(number string) (prefix string, year, seq int, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, fmt.Errorf("invalid document number format: %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return "", 0, 0, fmt.Errorf("invalid year in document number %q", number)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return "", 0, 0, fmt.Errorf("invalid sequence in document number %q", number)
	}

	return parts[0], year, seq, nil
}

// Next returns the next free number for prefix and year given the numbers
// already in use. Numbers that don't parse, or belong to another prefix or
// year, are ignored.
func Next(existing []string, prefix string, year int) string {
	maxSeq := 0
	for _, n := range existing {
		p, y, seq, err := Parse(n)
		if err != nil || p != prefix || y != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return Format(prefix, year, maxSeq+1)
}
