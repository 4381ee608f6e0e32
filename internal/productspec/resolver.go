package productspec

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/tables"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// ErrUnknownProduct is returned when no usable specification row exists for a product.
var ErrUnknownProduct = errors.New("unknown product")

// Column names of the product specification table.
const (
	colID      = "Idx"
	colSupport = "Supported"
	colParams  = "Parameters"
	colMethods = "Pricing_Methods"
)

// Resolver looks up product specifications from the reference tables.
type Resolver struct {
	tables tables.Provider
	logger *zap.Logger
}

// NewResolver creates a Resolver over a table provider.
func NewResolver(provider tables.Provider, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{tables: provider, logger: logger}
}

// Resolve returns the specification for productID. An unsupported product
// resolves successfully with Supported=false; a product that is missing from
// the table, or whose row cannot be read, fails with ErrUnknownProduct.
func (r *Resolver) Resolve(ctx context.Context, productID string) (model.ProductSpec, error) {
	tbl, err := r.tables.GetTable(ctx, tables.ProductSpecifications)
	if err != nil {
		r.logger.Warn("productspec.table_unavailable", zap.Error(err))
		return model.ProductSpec{}, fmt.Errorf("%w: %s: %v", ErrUnknownProduct, productID, err)
	}

	for i := 0; i < tbl.Len(); i++ {
		id, err := tbl.String(i, colID)
		if err != nil {
			return model.ProductSpec{}, fmt.Errorf("%w: %v", ErrUnknownProduct, err)
		}
		if id != productID {
			continue
		}
		spec, err := parseRow(tbl, i, productID)
		if err != nil {
			r.logger.Warn("productspec.malformed_row",
				zap.String("product", productID),
				zap.Error(err))
			return model.ProductSpec{}, fmt.Errorf("%w: %s: %v", ErrUnknownProduct, productID, err)
		}
		return spec, nil
	}

	return model.ProductSpec{}, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
}

func parseRow(tbl *tables.Table, row int, productID string) (model.ProductSpec, error) {
	supportCell, err := tbl.String(row, colSupport)
	if err != nil {
		return model.ProductSpec{}, err
	}
	supported, err := parseFlag(supportCell)
	if err != nil {
		return model.ProductSpec{}, err
	}

	paramsCell, err := tbl.String(row, colParams)
	if err != nil {
		return model.ProductSpec{}, err
	}
	params, err := ParseList(paramsCell)
	if err != nil {
		return model.ProductSpec{}, fmt.Errorf("%s: %w", colParams, err)
	}

	methodsCell, err := tbl.String(row, colMethods)
	if err != nil {
		return model.ProductSpec{}, err
	}
	methods, err := ParseList(methodsCell)
	if err != nil {
		return model.ProductSpec{}, fmt.Errorf("%s: %w", colMethods, err)
	}

	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		set[m] = struct{}{}
	}

	return model.ProductSpec{
		ProductID:      productID,
		Supported:      supported,
		RequiredParams: params,
		PricingMethods: set,
	}, nil
}

// parseFlag accepts 0/1, true/false and numeric values (non-zero is true).
func parseFlag(s string) (bool, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, fmt.Errorf("invalid support flag %q", s)
	}
	return f != 0, nil
}
