package pricing

import "errors"

var (
	// ErrInvalidCreditRiskCategory: model pricing needs one of Categories.
	ErrInvalidCreditRiskCategory = errors.New("invalid credit risk category")
	// ErrInvalidCreditRiskScore: market pricing needs a numeric score in [MinScore, MaxScore].
	ErrInvalidCreditRiskScore = errors.New("invalid credit risk score")
	// ErrNoMatchingBand: no table row covers the lookup value.
	ErrNoMatchingBand = errors.New("no matching pricing band")
	// ErrNoExactTermMatch: the term-risk discount table has no row for the term.
	ErrNoExactTermMatch = errors.New("no exact term match")
)
