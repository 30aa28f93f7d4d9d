package util

import (
	"strconv"
)

// MustParseInt converts a string to int, returning the fallback on parse failure.
func MustParseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
