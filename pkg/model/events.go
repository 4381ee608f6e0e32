package model

import "time"

// LoanPricedEvent is published after a pricing run has been audited.
type LoanPricedEvent struct {
	RunID       string    `json:"run_id"`
	Product     string    `json:"product"`
	PricingType string    `json:"pricing_type"`
	LoanID      string    `json:"loan_id"`
	Price       float64   `json:"price"`
	SourceName  string    `json:"source_name"`
	DeRunID     string    `json:"de_run_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
