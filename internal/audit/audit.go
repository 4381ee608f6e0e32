package audit

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// ErrDuplicateRecord is returned when a record with the same run_id already exists.
var ErrDuplicateRecord = errors.New("audit record already exists")

// Logger persists one audit record per successful pricing run. Writes are
// write-once; a second write for the same run_id fails with ErrDuplicateRecord.
type Logger interface {
	Write(ctx context.Context, rec model.AuditRecord) error
}

// HealthChecker is implemented by writers whose backend can be probed.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FormatPrice renders a price as the shortest decimal string that round-trips.
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).String()
}

// NewRecord builds the audit record for a priced request.
// loan_to_value and de_run_id are carried only when the request had them.
func NewRecord(req model.PricingRequest, runID, date string, price float64) model.AuditRecord {
	return model.AuditRecord{
		Product:     req.Product,
		CreditRisk:  req.CreditRisk,
		Term:        req.Term,
		LoanToValue: req.LoanToValue,
		Amount:      req.Amount,
		LoanID:      req.LoanID,
		RunID:       runID,
		Date:        date,
		Price:       FormatPrice(price),
		UserName:    req.UserName,
		SourceName:  req.SourceName,
		DeRunID:     req.DeRunID,
		PricingType: req.PricingType,
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateRecord):
		return "duplicate"
	default:
		return "error"
	}
}
