package pricer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/loan-pricer/internal/audit"
	"github.com/Checker-Finance/loan-pricer/internal/pricing"
	"github.com/Checker-Finance/loan-pricer/internal/productspec"
	"github.com/Checker-Finance/loan-pricer/internal/tables"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// --- fakes ---

type csvTables map[string]string

func (c csvTables) GetTable(_ context.Context, name string) (*tables.Table, error) {
	src, ok := c[name]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return tables.Decode(name, tables.ExtCSV, strings.NewReader(src))
}

type fakeAudit struct {
	records []model.AuditRecord
	err     error
}

func (f *fakeAudit) Write(_ context.Context, rec model.AuditRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

type fakePublisher struct {
	events []model.LoanPricedEvent
	err    error
}

func (f *fakePublisher) PublishLoanPriced(_ context.Context, evt model.LoanPricedEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

const required = `"['product','pricing_type','credit_risk','term','amount','loan_id','user_name','source_name']"`

func fixtures() csvTables {
	return csvTables{
		tables.ProductSpecifications: "Idx,Supported,Parameters,Pricing_Methods\n" +
			"product1,1," + required + `,"['model','market','market_simple']"` + "\n" +
			"product2,0," + required + `,"['model']"` + "\n" +
			"product3,1," + required + `,"['model']"` + "\n",
		tables.Finance:          "Idx,NIM\nproduct1,0.05\nproduct3,0.04",
		tables.FundingCurve:     "Time(in months),product1,product3\n30, 0.02,0.02",
		tables.SizePremia:       "Size(in thousands),product1,product3\n100, 0.01,0.01",
		tables.TermPremia:       "Time(in months),product1,product3\n30, 0.015,0.015",
		tables.CreditPremia:     "Product,DimOneValMin,DimOneValMax,DimTwoVal,Value\nproduct1, 10, 50,Good, 0.025\nproduct1,50,90,Good,0.05",
		tables.TermRiskDiscount: "Term,Strong,Good,Satisfactory,Weak\n30,0,500,0,0",
		tables.MarketSimple:     "DimOneValMin,DimOneValMax,DimTwoValue,Value\n15,45,5.1,600",
	}
}

var fixedNow = time.Date(2026, 10, 16, 9, 5, 7, 0, time.UTC)

func newTestService(tbl csvTables) (*Service, *fakeAudit) {
	a := &fakeAudit{}
	svc := NewService(productspec.NewResolver(tbl, nil), pricing.NewEngine(tbl, nil), a, nil)
	svc.SetClock(func() time.Time { return fixedNow })
	svc.SetIDGenerator(func() string { return "run-fixed" })
	return svc, a
}

func request(method, creditRisk string) map[string]string {
	return map[string]string{
		model.FieldProduct:     "product1",
		model.FieldPricingType: method,
		model.FieldCreditRisk:  creditRisk,
		model.FieldTerm:        "30",
		model.FieldAmount:      "100000",
		model.FieldLoanID:      "L-1",
		model.FieldUserName:    "analyst",
		model.FieldSourceName:  "portal",
	}
}

// --- success paths ---

func TestHandle_ModelSuccess(t *testing.T) {
	svc, a := newTestService(fixtures())

	resp := svc.Handle(context.Background(), request(model.MethodModel, "Good"))

	require.Equal(t, 200, resp.StatusCode, resp.Body)
	require.NotNil(t, resp.Output)
	assert.InDelta(t, 5+0.0002+0.00015+0.0001+0.00025, *resp.Output, 1e-12)
	assert.Empty(t, resp.Body)

	require.Len(t, resp.Input, 1)
	assert.Equal(t, map[string]string{
		"product": "product1", "credit_risk": "Good", "amount": "100000", "term": "30", "loan_id": "L-1",
	}, resp.Input[0])

	require.NotNil(t, resp.MetaData)
	assert.Equal(t, "run-fixed", resp.MetaData.RunID)
	assert.Equal(t, "10/16/2026, 09:05:07", resp.MetaData.RunDate)
	assert.GreaterOrEqual(t, resp.MetaData.RunTime, 0.0)

	require.Len(t, a.records, 1)
	rec := a.records[0]
	assert.Equal(t, "run-fixed", rec.RunID)
	assert.Equal(t, "10/16/2026, 09:05:07", rec.Date)
	assert.Equal(t, audit.FormatPrice(*resp.Output), rec.Price)
	assert.Equal(t, model.MethodModel, rec.PricingType)
	assert.Equal(t, "analyst", rec.UserName)
	assert.Equal(t, "portal", rec.SourceName)
	assert.Nil(t, rec.LoanToValue)
	assert.Nil(t, rec.DeRunID)
}

func TestHandle_ModelWithLoanToValue(t *testing.T) {
	svc, a := newTestService(fixtures())
	p := request(model.MethodModel, "Good")
	p[model.FieldLoanToValue] = "75"

	resp := svc.Handle(context.Background(), p)

	require.Equal(t, 200, resp.StatusCode, resp.Body)
	assert.InDelta(t, 5+0.0002+0.00015+0.0001+0.0005, *resp.Output, 1e-12)
	assert.Equal(t, "75", resp.Input[0][model.FieldLoanToValue])
	require.NotNil(t, a.records[0].LoanToValue)
	assert.Equal(t, "75", *a.records[0].LoanToValue)
}

func TestHandle_MarketSuccessPublishes(t *testing.T) {
	svc, a := newTestService(fixtures())
	pub := &fakePublisher{}
	svc.SetPublisher(pub)

	p := request(model.MethodMarket, "5.1")
	p[model.FieldDeRunID] = "de-7"
	resp := svc.Handle(context.Background(), p)

	require.Equal(t, 200, resp.StatusCode, resp.Body)
	score := 5.1
	assert.InDelta(t, (-1.3333333*score+28.333333)-5, *resp.Output, 1e-12)
	assert.Equal(t, "de-7", resp.Input[0][model.FieldDeRunID])

	require.Len(t, a.records, 1)
	require.NotNil(t, a.records[0].DeRunID)
	assert.Equal(t, "de-7", *a.records[0].DeRunID)

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, "run-fixed", evt.RunID)
	assert.Equal(t, "de-7", evt.DeRunID)
	assert.Equal(t, *resp.Output, evt.Price)
	assert.Equal(t, fixedNow, evt.Timestamp)
}

func TestHandle_MarketSimpleSuccess(t *testing.T) {
	svc, _ := newTestService(fixtures())

	resp := svc.Handle(context.Background(), request(model.MethodMarketSimple, "5.1"))

	require.Equal(t, 200, resp.StatusCode, resp.Body)
	assert.Equal(t, 6.0, *resp.Output)
}

func TestHandle_AuditFailureDoesNotBlock(t *testing.T) {
	svc, a := newTestService(fixtures())
	a.err = errors.New("dynamodb unavailable")

	resp := svc.Handle(context.Background(), request(model.MethodMarketSimple, "5.1"))

	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, a.records, 1)
}

func TestHandle_PublishFailureDoesNotBlock(t *testing.T) {
	svc, _ := newTestService(fixtures())
	svc.SetPublisher(&fakePublisher{err: errors.New("nats down")})

	resp := svc.Handle(context.Background(), request(model.MethodMarketSimple, "5.1"))
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandle_FreshRunIDs(t *testing.T) {
	a := &fakeAudit{}
	tbl := fixtures()
	svc := NewService(productspec.NewResolver(tbl, nil), pricing.NewEngine(tbl, nil), a, nil)

	r1 := svc.Handle(context.Background(), request(model.MethodMarketSimple, "5.1"))
	r2 := svc.Handle(context.Background(), request(model.MethodMarketSimple, "5.1"))
	require.Equal(t, 200, r1.StatusCode)
	require.Equal(t, 200, r2.StatusCode)
	assert.NotEqual(t, r1.MetaData.RunID, r2.MetaData.RunID)
	assert.Len(t, r1.MetaData.RunID, 36)
}

// --- failure paths ---

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name   string
		params func() map[string]string
		tables func() csvTables
		body   string
	}{
		{
			name: "unknown product",
			params: func() map[string]string {
				p := request(model.MethodModel, "Good")
				p[model.FieldProduct] = "product9"
				return p
			},
			body: "Please make sure that you have selected a valid product",
		},
		{
			name:   "product table unavailable",
			params: func() map[string]string { return request(model.MethodModel, "Good") },
			tables: func() csvTables {
				fx := fixtures()
				delete(fx, tables.ProductSpecifications)
				return fx
			},
			body: "Please make sure that you have selected a valid product",
		},
		{
			name: "no product parameter",
			params: func() map[string]string {
				p := request(model.MethodModel, "Good")
				delete(p, model.FieldProduct)
				return p
			},
			body: "Please make sure that you have selected a valid product",
		},
		{
			name: "unsupported product",
			params: func() map[string]string {
				p := request(model.MethodModel, "Good")
				p[model.FieldProduct] = "product2"
				return p
			},
			body: "Selected product product2 is not currently supported",
		},
		{
			name: "missing parameters",
			params: func() map[string]string {
				p := request(model.MethodModel, "Good")
				delete(p, model.FieldLoanID)
				delete(p, model.FieldAmount)
				return p
			},
			body: "missing required parameters [amount loan_id]",
		},
		{
			name: "method not allowed",
			params: func() map[string]string {
				p := request(model.MethodMarket, "5")
				p[model.FieldProduct] = "product3"
				return p
			},
			body: "The product product3 does not support pricing method market",
		},
		{
			name:   "invalid category",
			params: func() map[string]string { return request(model.MethodModel, "Excellent") },
			body:   "Credit risk must be a value in [Strong Satisfactory Good Weak] for this pricing type",
		},
		{
			name:   "score not numeric",
			params: func() map[string]string { return request(model.MethodMarket, "Good") },
			body:   "Credit risk must be a value between 1 and 10 for this pricing type",
		},
		{
			name:   "score out of range",
			params: func() map[string]string { return request(model.MethodMarketSimple, "11") },
			body:   "Credit risk must be a value between 1 and 10 for this pricing type",
		},
		{
			name: "no exact term",
			params: func() map[string]string {
				p := request(model.MethodMarket, "5.1")
				p[model.FieldTerm] = "31"
				return p
			},
			body: "Term 31 is not available for pricing method market",
		},
		{
			name: "no matching band",
			params: func() map[string]string {
				p := request(model.MethodMarketSimple, "5.1")
				p[model.FieldTerm] = "90"
				return p
			},
			body: "No pricing band of product product1 covers the requested term 90",
		},
		{
			name:   "market value cell is NaN",
			params: func() map[string]string { return request(model.MethodMarketSimple, "5.1") },
			tables: func() csvTables {
				fx := fixtures()
				fx[tables.MarketSimple] = "DimOneValMin,DimOneValMax,DimTwoValue,Value\n15,45,5.1,NaN"
				return fx
			},
			body: "No pricing band of product product1 covers the requested term 30",
		},
		{
			name:   "model premia overflow",
			params: func() map[string]string { return request(model.MethodModel, "Good") },
			tables: func() csvTables {
				fx := fixtures()
				fx[tables.Finance] = "Idx,NIM\nproduct1,1e308\nproduct3,0.04"
				return fx
			},
			body: "Unable to price product product1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := fixtures()
			if tt.tables != nil {
				tbl = tt.tables()
			}
			svc, a := newTestService(tbl)

			resp := svc.Handle(context.Background(), tt.params())

			assert.Equal(t, 400, resp.StatusCode)
			assert.Equal(t, tt.body, resp.Body)
			assert.Nil(t, resp.Output)
			assert.Nil(t, resp.MetaData)
			assert.Empty(t, a.records, "failed runs are not audited")
		})
	}
}

func TestHandle_InvalidParameterMessage(t *testing.T) {
	svc, _ := newTestService(fixtures())
	p := request(model.MethodModel, "Good")
	p[model.FieldTerm] = "thirty"

	resp := svc.Handle(context.Background(), p)

	assert.Equal(t, 400, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Body, "Invalid request: invalid parameter: term="), resp.Body)
}

func TestDescribe_SentinelOutcomes(t *testing.T) {
	params := request(model.MethodModel, "Good")

	outcome, msg := describe(params, fmt.Errorf("%w: product1", ErrUnsupportedProduct))
	assert.Equal(t, "unsupported_product", outcome)
	assert.Equal(t, "Selected product product1 is not currently supported", msg)

	outcome, msg = describe(params, fmt.Errorf("%w: price +Inf", ErrNonFinitePrice))
	assert.Equal(t, "non_finite_price", outcome)
	assert.Equal(t, "Unable to price product product1", msg)
}
