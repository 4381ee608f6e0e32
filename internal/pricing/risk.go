package pricing

import (
	"fmt"
	"math"
)

// Credit risk categories, in the order they are reported to callers.
const (
	Strong       = "Strong"
	Satisfactory = "Satisfactory"
	Good         = "Good"
	Weak         = "Weak"
)

// Categories lists the credit risk categories accepted by model pricing.
var Categories = []string{Strong, Satisfactory, Good, Weak}

// Bounds of a numeric credit risk score.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// IsCategory reports whether s is a credit risk category literal.
func IsCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}

// Bucket maps a credit risk score onto a category.
// Lower bounds are inclusive: 7.5 is Strong, 5 is Good, 2.5 is Satisfactory.
func Bucket(score float64) string {
	switch {
	case score >= 7.5:
		return Strong
	case score >= 5:
		return Good
	case score >= 2.5:
		return Satisfactory
	default:
		return Weak
	}
}

// ValidateScore checks a numeric credit risk score.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: %v outside [%v, %v]", ErrInvalidCreditRiskScore, score, MinScore, MaxScore)
	}
	return nil
}
