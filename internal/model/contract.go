package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusCompleted  ContractStatus = "COMPLETED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

// DefaultExitClause applies when the accepted quote carries none.
const DefaultExitClause = "Either party may terminate with 30 days written notice."

// Contract is created exactly once per accepted quote.
type Contract struct {
	ID               uuid.UUID      `json:"id"`
	LeadID           uuid.UUID      `json:"lead_id"`
	QuoteID          uuid.UUID      `json:"quote_id"`
	BusinessName     string         `json:"business_name"`
	TotalMonthlyRate float64        `json:"total_monthly_rate"`
	TenureMonths     int            `json:"tenure_months"`
	StartDate        time.Time      `json:"start_date"`
	EndDate          time.Time      `json:"end_date"`
	PaymentTerms     string         `json:"payment_terms"`
	ExitClause       string         `json:"exit_clause"`
	Status           ContractStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
}
