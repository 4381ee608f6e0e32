package pricer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/audit"
	"github.com/Checker-Finance/loan-pricer/internal/metrics"
	"github.com/Checker-Finance/loan-pricer/internal/pricing"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// DateLayout is the run_date format written to responses and audit records.
const DateLayout = "01/02/2006, 15:04:05"

const msgInvalidProduct = "Please make sure that you have selected a valid product"

// SpecResolver resolves product specifications.
type SpecResolver interface {
	Resolve(ctx context.Context, productID string) (model.ProductSpec, error)
}

// Engine computes prices for the supported pricing methods.
type Engine interface {
	PriceModel(ctx context.Context, in pricing.ModelInput) (float64, error)
	PriceMarket(ctx context.Context, score, term float64) (float64, error)
	PriceMarketSimple(ctx context.Context, score, term float64) (float64, error)
}

// EventPublisher emits an event after each successful pricing run.
type EventPublisher interface {
	PublishLoanPriced(ctx context.Context, evt model.LoanPricedEvent) error
}

// Service turns a request mapping into a priced, audited response.
type Service struct {
	resolver  SpecResolver
	engine    Engine
	audit     audit.Logger
	publisher EventPublisher
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewService(resolver SpecResolver, engine Engine, auditLog audit.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver: resolver,
		engine:   engine,
		audit:    auditLog,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// SetPublisher enables pricing events. A nil publisher disables them.
func (s *Service) SetPublisher(p EventPublisher) { s.publisher = p }

// SetClock replaces the clock used for run dates.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetIDGenerator replaces the run_id generator.
func (s *Service) SetIDGenerator(f func() string) { s.newID = f }

// Handle prices one request. Every failure is reported as a 400 response
// with an explanatory body; Handle never returns an error.
func (s *Service) Handle(ctx context.Context, params map[string]string) model.Response {
	product := params[model.FieldProduct]
	method := methodLabel(params[model.FieldPricingType])

	spec, err := s.resolver.Resolve(ctx, product)
	if err != nil {
		s.logger.Warn("pricer.resolve_failed", zap.String("product", product), zap.Error(err))
		metrics.IncPricing(method, "unknown_product")
		return failure(msgInvalidProduct)
	}
	if !spec.Supported {
		return s.reject(method, params, fmt.Errorf("%w: %s", ErrUnsupportedProduct, product))
	}

	start := time.Now()
	runID := s.newID()
	ts := s.now()
	date := ts.Format(DateLayout)

	req, err := ParseRequest(params, spec)
	if err != nil {
		return s.reject(method, params, err)
	}

	price, err := s.price(ctx, req)
	if err == nil && (math.IsNaN(price) || math.IsInf(price, 0)) {
		err = fmt.Errorf("%w: price %v", ErrNonFinitePrice, price)
	}
	if err != nil {
		return s.reject(method, params, err)
	}

	rec := audit.NewRecord(req, runID, date, price)
	if err := s.audit.Write(ctx, rec); err != nil {
		// the caller still gets the price
		s.logger.Error("pricer.audit_failed",
			zap.String("run_id", runID),
			zap.String("product", product),
			zap.Error(err))
		metrics.IncError("pricer", "audit_failed")
	}

	if s.publisher != nil {
		evt := model.LoanPricedEvent{
			RunID:       runID,
			Product:     req.Product,
			PricingType: req.PricingType,
			LoanID:      req.LoanID,
			Price:       price,
			SourceName:  req.SourceName,
			Timestamp:   ts.UTC(),
		}
		if req.DeRunID != nil {
			evt.DeRunID = *req.DeRunID
		}
		if err := s.publisher.PublishLoanPriced(ctx, evt); err != nil {
			s.logger.Warn("pricer.publish_failed", zap.String("run_id", runID), zap.Error(err))
		}
	}

	metrics.IncPricing(method, "ok")
	s.logger.Info("pricer.priced",
		zap.String("run_id", runID),
		zap.String("product", req.Product),
		zap.String("pricing_type", req.PricingType),
		zap.Float64("price", price))

	return model.Response{
		StatusCode: http.StatusOK,
		Output:     &price,
		Input:      []map[string]string{echo(req)},
		MetaData: &model.MetaData{
			RunID:   runID,
			RunDate: date,
			RunTime: time.Since(start).Seconds(),
		},
	}
}

func (s *Service) price(ctx context.Context, req model.PricingRequest) (float64, error) {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.PricingDuration, start, req.PricingType)

	switch req.PricingType {
	case model.MethodModel:
		return s.engine.PriceModel(ctx, pricing.ModelInput{
			Product:     req.Product,
			CreditRisk:  req.CreditRisk,
			Term:        req.TermValue,
			Amount:      req.AmountValue,
			LoanToValue: req.LoanToValueValue,
		})
	case model.MethodMarket:
		return s.engine.PriceMarket(ctx, req.CreditRiskScore, req.TermValue)
	case model.MethodMarketSimple:
		return s.engine.PriceMarketSimple(ctx, req.CreditRiskScore, req.TermValue)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPricingMethod, req.PricingType)
	}
}

func (s *Service) reject(method string, params map[string]string, err error) model.Response {
	outcome, msg := describe(params, err)
	metrics.IncPricing(method, outcome)
	s.logger.Info("pricer.rejected",
		zap.String("product", params[model.FieldProduct]),
		zap.String("pricing_type", params[model.FieldPricingType]),
		zap.String("outcome", outcome),
		zap.Error(err))
	return failure(msg)
}

// describe maps a pricing error onto a metrics outcome and a caller-facing message.
func describe(params map[string]string, err error) (string, string) {
	product := params[model.FieldProduct]
	method := params[model.FieldPricingType]
	term := params[model.FieldTerm]

	var missing *MissingParamsError
	switch {
	case errors.Is(err, ErrUnsupportedProduct):
		return "unsupported_product", fmt.Sprintf("Selected product %s is not currently supported", product)
	case errors.As(err, &missing):
		return "missing_parameters", missing.Error()
	case errors.Is(err, ErrUnsupportedPricingMethod):
		return "unsupported_method", fmt.Sprintf("The product %s does not support pricing method %s", product, method)
	case errors.Is(err, pricing.ErrInvalidCreditRiskCategory):
		return "invalid_category", fmt.Sprintf("Credit risk must be a value in %v for this pricing type", pricing.Categories)
	case errors.Is(err, pricing.ErrInvalidCreditRiskScore):
		return "invalid_score", fmt.Sprintf("Credit risk must be a value between %v and %v for this pricing type",
			pricing.MinScore, pricing.MaxScore)
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter", "Invalid request: " + err.Error()
	case errors.Is(err, pricing.ErrNoMatchingBand):
		return "no_matching_band", fmt.Sprintf("No pricing band of product %s covers the requested term %s", product, term)
	case errors.Is(err, pricing.ErrNoExactTermMatch):
		return "no_exact_term", fmt.Sprintf("Term %s is not available for pricing method %s", term, method)
	case errors.Is(err, ErrNonFinitePrice):
		return "non_finite_price", fmt.Sprintf("Unable to price product %s", product)
	default:
		return "error", fmt.Sprintf("Unable to price product %s", product)
	}
}

func echo(req model.PricingRequest) map[string]string {
	in := map[string]string{
		model.FieldProduct:    req.Product,
		model.FieldCreditRisk: req.CreditRisk,
		model.FieldAmount:     req.Amount,
		model.FieldTerm:       req.Term,
		model.FieldLoanID:     req.LoanID,
	}
	if req.LoanToValue != nil {
		in[model.FieldLoanToValue] = *req.LoanToValue
	}
	if req.DeRunID != nil {
		in[model.FieldDeRunID] = *req.DeRunID
	}
	return in
}

// methodLabel bounds the metrics label to known methods.
func methodLabel(method string) string {
	switch method {
	case model.MethodModel, model.MethodMarket, model.MethodMarketSimple:
		return method
	default:
		return "other"
	}
}

func failure(body string) model.Response {
	return model.Response{StatusCode: http.StatusBadRequest, Body: body}
}
