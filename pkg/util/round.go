package util

import "math"

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
    p := math.Pow10(places)
    return math.Round(v*p) / p
}

// Round4 rounds v to 4 decimal places, the precision of stored sentiment means.
func Round4(v float64) float64 { return Round(v, 4) }
