package model

// Pricing methods a product may allow.
const (
	MethodModel        = "model"
	MethodMarket       = "market"
	MethodMarketSimple = "market_simple"
)

// Request fields recognised by the pricing API.
const (
	FieldProduct     = "product"
	FieldPricingType = "pricing_type"
	FieldCreditRisk  = "credit_risk"
	FieldTerm        = "term"
	FieldAmount      = "amount"
	FieldLoanID      = "loan_id"
	FieldUserName    = "user_name"
	FieldSourceName  = "source_name"
	FieldLoanToValue = "loan_to_value"
	FieldDeRunID     = "de_run_id"
)

// ProductSpec describes which parameters and pricing methods a product accepts.
type ProductSpec struct {
	ProductID      string
	Supported      bool
	RequiredParams []string
	PricingMethods map[string]struct{}
}

// Allows reports whether method is a valid pricing method for the product.
func (p ProductSpec) Allows(method string) bool {
	_, ok := p.PricingMethods[method]
	return ok
}

// PricingRequest is a request that has passed presence checks and type coercion.
// Raw string fields are kept for echoing and auditing.
type PricingRequest struct {
	Product     string
	CreditRisk  string
	Term        string
	Amount      string
	LoanID      string
	UserName    string
	SourceName  string
	PricingType string
	LoanToValue *string
	DeRunID     *string

	// Coerced values. CreditRiskScore is only set for market methods.
	CreditRiskScore  float64
	TermValue        float64
	AmountValue      float64
	LoanToValueValue *float64
}

// AuditRecord is the write-once log entry for one successful pricing run.
type AuditRecord struct {
	Product     string  `json:"product"`
	CreditRisk  string  `json:"credit_risk"`
	Term        string  `json:"term"`
	LoanToValue *string `json:"loan_to_value,omitempty"`
	Amount      string  `json:"amount"`
	LoanID      string  `json:"loan_id"`
	RunID       string  `json:"run_id"`
	Date        string  `json:"date"`
	Price       string  `json:"price"`
	UserName    string  `json:"user_name"`
	SourceName  string  `json:"source_name"`
	DeRunID     *string `json:"de_run_id,omitempty"`
	PricingType string  `json:"pricing_type"`
}

// MetaData is attached to every successful response.
type MetaData struct {
	RunID   string  `json:"run_id"`
	RunDate string  `json:"run_date"`
	RunTime float64 `json:"run_time"`
}

// Response is the envelope returned to API callers.
// Success carries Output/Input/MetaData, failures carry Body.
type Response struct {
	StatusCode int                 `json:"statusCode"`
	Body       string              `json:"body,omitempty"`
	Output     *float64            `json:"output,omitempty"`
	Input      []map[string]string `json:"input,omitempty"`
	MetaData   *MetaData           `json:"meta_data,omitempty"`
}
