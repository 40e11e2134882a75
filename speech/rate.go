package speech

import "fmt"

// Rates are the speaking rates an Output accepts.
var Rates = []float64{
	0.5,  // Half speed
	0.75, // Slow
	1.0,  // Normal
	1.25, // Fast
	1.5,  // Faster
}

// DefaultRate is the normal speaking rate.
const DefaultRate = 1.0

// ValidRate reports whether rate is one of Rates.
func ValidRate(rate float64) bool {
	for _, r := range Rates {
		if r == rate {
			return true
		}
	}
	return false
}

// Faster returns the next rate step above rate, or rate at the maximum.
func Faster(rate float64) float64 {
	for _, r := range Rates {
		if r > rate {
			return r
		}
	}
	return rate
}

// Slower returns the next rate step below rate, or rate at the minimum.
func Slower(rate float64) float64 {
	for i := len(Rates) - 1; i >= 0; i-- {
		if Rates[i] < rate {
			return Rates[i]
		}
	}
	return rate
}

// RateDisplay returns a human-readable rate description.
func RateDisplay(rate float64) string {
	switch rate {
	case 0.5:
		return "0.5x (Half Speed)"
	case 0.75:
		return "0.75x (Slow)"
	case 1.0:
		return "1.0x (Normal)"
	case 1.25:
		return "1.25x (Fast)"
	case 1.5:
		return "1.5x (Faster)"
	default:
		return fmt.Sprintf("%.2fx", rate)
	}
}
