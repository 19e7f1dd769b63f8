package models

import (
	"math"
	"strings"
)

func normalizeSpotText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// roundScore keeps two decimal places, which is what the result table stores
func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
