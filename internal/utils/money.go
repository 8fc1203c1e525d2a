package utils

import "math"

// Round2 rounds a money amount to two decimal places. Totals, change and
// line totals are always stored rounded.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
