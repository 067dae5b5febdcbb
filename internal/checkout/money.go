package checkout

import (
	"math"
	"strconv"
	"strings"
)

// Epsilon is the settlement tolerance. Balances within this of zero are
// treated as fully paid.
const Epsilon = 0.01

// ParseAmount parses cashier-typed money text. It returns ok=false for
// anything that does not parse to a strictly positive number.
func ParseAmount(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatAmount renders money with two fraction digits for display.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Settled reports whether a remaining balance is close enough to zero.
func Settled(remaining float64) bool {
	return remaining <= Epsilon
}
