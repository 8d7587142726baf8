package util

import (
	"math"
	"strings"
)

// Round Method to round to 2 decimals
func Round(f float64) float64 {
	return math.Round(f*100) / 100
}

// PadLeft pads s on the left with char until it is width runes long.
func PadLeft(s string, width int, char rune) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	return strings.Repeat(string(char), n) + s
}

// PadRight pads s on the right with spaces until it is width runes long.
func PadRight(s string, width int) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}
