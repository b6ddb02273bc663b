package model

import (
	"time"

	"github.com/google/uuid"
)

type QuoteStatus string

const (
	QuoteStatusDraft            QuoteStatus = "DRAFT"
	QuoteStatusSent             QuoteStatus = "SENT"
	QuoteStatusAccepted         QuoteStatus = "ACCEPTED"
	QuoteStatusRejected         QuoteStatus = "REJECTED"
	QuoteStatusExpired          QuoteStatus = "EXPIRED"
	QuoteStatusChangesRequested QuoteStatus = "CHANGES_REQUESTED"
)

type ServiceFrequency string

const (
	FrequencyDaily    ServiceFrequency = "DAILY"
	FrequencyWeekly   ServiceFrequency = "WEEKLY"
	FrequencyBiweekly ServiceFrequency = "BIWEEKLY"
	FrequencyMonthly  ServiceFrequency = "MONTHLY"
	FrequencyOneTime  ServiceFrequency = "ONE_TIME"
)

// QuoteLineItem is one priced service at one location. ScopeTemplateID is
// resolved from the service type at quote-creation time; acceptance uses the
// stored id rather than re-matching template names.
type QuoteLineItem struct {
	Location        string           `json:"location"`
	Zip             string           `json:"zip"`
	ServiceType     string           `json:"service_type"`
	Frequency       ServiceFrequency `json:"frequency"`
	MonthlyRate     float64          `json:"monthly_rate"`
	ScopeTemplateID *uuid.UUID       `json:"scope_template_id,omitempty"`
}

type Quote struct {
	ID               uuid.UUID       `json:"id"`
	LeadID           uuid.UUID       `json:"lead_id"`
	Version          int             `json:"version"`
	LineItems        []QuoteLineItem `json:"line_items"`
	TotalMonthlyRate float64         `json:"total_monthly_rate"`
	TenureMonths     int             `json:"tenure_months"`
	PaymentTerms     string          `json:"payment_terms"`
	ExitClause       string          `json:"exit_clause"`
	ReviewToken      string          `json:"review_token"`
	Status           QuoteStatus     `json:"status"`
	AcceptedAt       *time.Time      `json:"accepted_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Open reports whether the quote can still be accepted or rejected.
// A CHANGES_REQUESTED quote is revised as a new version, not re-accepted.
func (q *Quote) Open() bool {
	return q.Status == QuoteStatusDraft || q.Status == QuoteStatusSent
}
