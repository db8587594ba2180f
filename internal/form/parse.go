package form

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInt    = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseMoney reads the leading decimal number of s, rounded to cents.
// Anything unparsable is zero.
func ParseMoney(s string) decimal.Decimal {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// ParseDays reads the leading integer of s. Anything unparsable is zero.
func ParseDays(s string) int {
	m := leadingInt.FindString(strings.TrimSpace(s))
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
