package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/tables"
)

// Fixed coefficients of the market regression line.
const (
	marketSlope     = -1.3333333
	marketIntercept = 28.333333
)

// Column names used by the pricing tables.
const (
	colProductID   = "Idx"
	colNIM         = "NIM"
	colMonths      = "Time(in months)"
	colThousands   = "Size(in thousands)"
	colProduct     = "Product"
	colDimOneMin   = "DimOneValMin"
	colDimOneMax   = "DimOneValMax"
	colDimTwo      = "DimTwoVal"
	colDimTwoValue = "DimTwoValue"
	colValue       = "Value"
	colTerm        = "Term"
)

// ModelInput carries the coerced parameters of a model pricing run.
type ModelInput struct {
	Product     string
	CreditRisk  string
	Term        float64
	Amount      float64
	LoanToValue *float64
}

// Breakdown is the set of components a model price is summed from, in points.
type Breakdown struct {
	NIM          float64
	FundingCurve float64
	TermPremia   float64
	SizePremia   float64
	CreditPremia float64
}

// Total sums the components in a fixed order.
func (b Breakdown) Total() float64 {
	return b.NIM + b.FundingCurve + b.TermPremia + b.SizePremia + b.CreditPremia
}

// Engine prices loans from the reference tables. Tables are fetched per call.
type Engine struct {
	tables tables.Provider
	logger *zap.Logger
}

// NewEngine creates a pricing engine over a table provider.
func NewEngine(provider tables.Provider, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{tables: provider, logger: logger}
}

// PriceModel prices a loan as NIM plus funding-curve, term, size and credit premia.
func (e *Engine) PriceModel(ctx context.Context, in ModelInput) (float64, error) {
	b, err := e.ModelBreakdown(ctx, in)
	if err != nil {
		return 0, err
	}
	return b.Total(), nil
}

// ModelBreakdown computes the individual components of a model price.
func (e *Engine) ModelBreakdown(ctx context.Context, in ModelInput) (Breakdown, error) {
	if !IsCategory(in.CreditRisk) {
		return Breakdown{}, fmt.Errorf("%w: %q", ErrInvalidCreditRiskCategory, in.CreditRisk)
	}

	finance, err := e.load(ctx, tables.Finance, ErrNoMatchingBand)
	if err != nil {
		return Breakdown{}, err
	}
	funding, err := e.load(ctx, tables.FundingCurve, ErrNoMatchingBand)
	if err != nil {
		return Breakdown{}, err
	}
	sizes, err := e.load(ctx, tables.SizePremia, ErrNoMatchingBand)
	if err != nil {
		return Breakdown{}, err
	}
	terms, err := e.load(ctx, tables.TermPremia, ErrNoMatchingBand)
	if err != nil {
		return Breakdown{}, err
	}
	credit, err := e.load(ctx, tables.CreditPremia, ErrNoMatchingBand)
	if err != nil {
		return Breakdown{}, err
	}

	var b Breakdown

	nim, err := lookupKey(finance, colProductID, in.Product, colNIM)
	if err != nil {
		return Breakdown{}, band(err)
	}
	b.NIM = nim * 100

	fc, err := nearestValue(funding, colMonths, in.Term, in.Product)
	if err != nil {
		return Breakdown{}, band(err)
	}
	b.FundingCurve = fc / 100

	tp, err := nearestValue(terms, colMonths, in.Term, in.Product)
	if err != nil {
		return Breakdown{}, band(err)
	}
	b.TermPremia = tp / 100

	sp, err := nearestValue(sizes, colThousands, in.Amount/1000, in.Product)
	if err != nil {
		return Breakdown{}, band(err)
	}
	b.SizePremia = sp / 100

	dim := in.Term
	if in.LoanToValue != nil {
		dim = *in.LoanToValue
	}
	cp, err := creditPremia(credit, in.Product, in.CreditRisk, dim)
	if err != nil {
		return Breakdown{}, band(err)
	}
	b.CreditPremia = cp / 100

	e.logger.Debug("pricing.model.breakdown",
		zap.String("product", in.Product),
		zap.String("credit_risk", in.CreditRisk),
		zap.Float64("nim", b.NIM),
		zap.Float64("funding_curve", b.FundingCurve),
		zap.Float64("term_premia", b.TermPremia),
		zap.Float64("size_premia", b.SizePremia),
		zap.Float64("credit_premia", b.CreditPremia))

	return b, nil
}

// creditPremia returns Value of the first row for product and category whose
// inclusive [DimOneValMin, DimOneValMax] range contains v.
func creditPremia(tbl *tables.Table, product, category string, v float64) (float64, error) {
	for i := 0; i < tbl.Len(); i++ {
		p, err := tbl.String(i, colProduct)
		if err != nil {
			return 0, err
		}
		c, err := tbl.String(i, colDimTwo)
		if err != nil {
			return 0, err
		}
		if p != product || c != category {
			continue
		}
		lo, err := tbl.Float(i, colDimOneMin)
		if err != nil {
			return 0, err
		}
		hi, err := tbl.Float(i, colDimOneMax)
		if err != nil {
			return 0, err
		}
		if lo <= v && v <= hi {
			return tbl.Float(i, colValue)
		}
	}
	return 0, fmt.Errorf("%w: no credit premia for %s/%s covering %v", ErrNoMatchingBand, product, category, v)
}

// PriceMarket prices along the fixed regression line less the term-risk discount
// for the score's bucket. The term must match a table row exactly.
func (e *Engine) PriceMarket(ctx context.Context, score, term float64) (float64, error) {
	if err := ValidateScore(score); err != nil {
		return 0, err
	}
	bucket := Bucket(score)

	tbl, err := e.load(ctx, tables.TermRiskDiscount, ErrNoExactTermMatch)
	if err != nil {
		return 0, err
	}

	discount, found := 0.0, false
	for i := 0; i < tbl.Len(); i++ {
		t, err := tbl.Float(i, colTerm)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNoExactTermMatch, err)
		}
		if t != term {
			continue
		}
		if discount, err = tbl.Float(i, bucket); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrNoExactTermMatch, err)
		}
		found = true
		break
	}
	if !found {
		return 0, fmt.Errorf("%w: term %v", ErrNoExactTermMatch, term)
	}

	// explicit conversion keeps the product rounded before the add
	line := float64(marketSlope*score) + marketIntercept
	return line - discount/100, nil
}

// PriceMarketSimple reads the price from the band with DimOneValMin < term <= DimOneValMax
// whose DimTwoValue is nearest the score (first row on ties).
func (e *Engine) PriceMarketSimple(ctx context.Context, score, term float64) (float64, error) {
	if err := ValidateScore(score); err != nil {
		return 0, err
	}

	tbl, err := e.load(ctx, tables.MarketSimple, ErrNoMatchingBand)
	if err != nil {
		return 0, err
	}

	best, bestDist := -1, math.Inf(1)
	for i := 0; i < tbl.Len(); i++ {
		lo, err := tbl.Float(i, colDimOneMin)
		if err != nil {
			return 0, band(err)
		}
		hi, err := tbl.Float(i, colDimOneMax)
		if err != nil {
			return 0, band(err)
		}
		if !(lo < term && term <= hi) {
			continue
		}
		v, err := tbl.Float(i, colDimTwoValue)
		if err != nil {
			return 0, band(err)
		}
		if d := math.Abs(v - score); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: no market band covers term %v", ErrNoMatchingBand, term)
	}

	value, err := tbl.Float(best, colValue)
	if err != nil {
		return 0, band(err)
	}
	return value / 100, nil
}

// load fetches a table, reporting retrieval failures as sentinel.
func (e *Engine) load(ctx context.Context, name string, sentinel error) (*tables.Table, error) {
	tbl, err := e.tables.GetTable(ctx, name)
	if err != nil {
		e.logger.Warn("pricing.table_unavailable",
			zap.String("table", name),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", sentinel, err)
	}
	return tbl, nil
}

func band(err error) error {
	if errors.Is(err, ErrNoMatchingBand) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNoMatchingBand, err)
}
