package pricer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Checker-Finance/loan-pricer/internal/pricing"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// ParseRequest checks params against the product specification and coerces
// the fields the selected pricing method needs.
//
// Required parameters are checked before the pricing method so that a request
// without pricing_type reports it as missing.
func ParseRequest(params map[string]string, spec model.ProductSpec) (model.PricingRequest, error) {
	var missing []string
	for _, name := range spec.RequiredParams {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return model.PricingRequest{}, &MissingParamsError{Names: dedupe(missing)}
	}

	method := params[model.FieldPricingType]
	if !spec.Allows(method) {
		return model.PricingRequest{}, fmt.Errorf("%w: product %s does not allow %q",
			ErrUnsupportedPricingMethod, spec.ProductID, method)
	}

	req := model.PricingRequest{
		Product:     params[model.FieldProduct],
		CreditRisk:  params[model.FieldCreditRisk],
		Term:        params[model.FieldTerm],
		Amount:      params[model.FieldAmount],
		LoanID:      params[model.FieldLoanID],
		UserName:    params[model.FieldUserName],
		SourceName:  params[model.FieldSourceName],
		PricingType: method,
	}
	if v, ok := params[model.FieldLoanToValue]; ok {
		req.LoanToValue = &v
	}
	if v, ok := params[model.FieldDeRunID]; ok {
		req.DeRunID = &v
	}

	var err error
	if req.TermValue, err = number(model.FieldTerm, req.Term); err != nil {
		return model.PricingRequest{}, err
	}

	switch method {
	case model.MethodModel:
		if req.AmountValue, err = number(model.FieldAmount, req.Amount); err != nil {
			return model.PricingRequest{}, err
		}
		if req.LoanToValue != nil {
			ltv, err := number(model.FieldLoanToValue, *req.LoanToValue)
			if err != nil {
				return model.PricingRequest{}, err
			}
			req.LoanToValueValue = &ltv
		}
	case model.MethodMarket, model.MethodMarketSimple:
		if req.LoanToValue != nil {
			return model.PricingRequest{}, fmt.Errorf("%w: %s is only accepted by %s pricing",
				ErrInvalidParameter, model.FieldLoanToValue, model.MethodModel)
		}
		score, perr := strconv.ParseFloat(strings.TrimSpace(req.CreditRisk), 64)
		if perr != nil {
			return model.PricingRequest{}, fmt.Errorf("%w: %q is not numeric",
				pricing.ErrInvalidCreditRiskScore, req.CreditRisk)
		}
		req.CreditRiskScore = score
	default:
		// allowed by the product table but not implemented here
		return model.PricingRequest{}, fmt.Errorf("%w: %q", ErrUnsupportedPricingMethod, method)
	}

	return req, nil
}

func number(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidParameter, field, raw)
	}
	return v, nil
}

// dedupe drops adjacent duplicates from a sorted slice.
func dedupe(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
