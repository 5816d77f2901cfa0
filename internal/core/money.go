// Package core provides the dashboard's typed records, the metrics
// calculation and the category filter.
//
// This file contains the currency formatting used by the KPI cards.
package core

import (
	"strconv"
)

// FormatDollars formats a whole amount as "$54".
func FormatDollars(v int64) string {
	if v < 0 {
		return "-$" + strconv.FormatInt(-v, 10)
	}
	return "$" + strconv.FormatInt(v, 10)
}

// FormatDollarsFixed formats an amount with two decimals, e.g. "$13.50".
// Rounding follows strconv's round-half-even on the binary value.
func FormatDollarsFixed(v float64) string {
	if v < 0 {
		return "-$" + strconv.FormatFloat(-v, 'f', 2, 64)
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}
