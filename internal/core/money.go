// Package core holds the domain types and pure calculations shared by the
// storage, reporting and service layers.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts user input to a whole-unit amount.
//
// Amounts are recorded in whole currency units by convention; fractional
// input is rejected rather than rounded so the ledger never contains a value
// the user did not type. Signs are rejected, only positive amounts exist.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if units <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Units: units}, nil
}
