package model

import (
	"time"

	"github.com/google/uuid"
)

type CommissionType string

const (
	CommissionTypeNewSale        CommissionType = "NEW_SALE"
	CommissionTypeFSMUpsell      CommissionType = "FSM_UPSELL"
	CommissionTypeRetentionBonus CommissionType = "RETENTION_BONUS"
)

type CommissionStatus string

const (
	CommissionStatusActive    CommissionStatus = "ACTIVE"
	CommissionStatusCompleted CommissionStatus = "COMPLETED"
	CommissionStatusCancelled CommissionStatus = "CANCELLED"
)

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusPaid      PayoutStatus = "PAID"
	PayoutStatusCancelled PayoutStatus = "CANCELLED"
)

// PayoutEntry is one month's slice of a commission. Entries move
// PENDING→PAID or PENDING→CANCELLED and never back.
type PayoutEntry struct {
	MonthIndex  int          `json:"month_index"`
	Amount      float64      `json:"amount"`
	Percentage  float64      `json:"percentage"`
	Status      PayoutStatus `json:"status"`
	ScheduledAt time.Time    `json:"scheduled_at"`
	PaidAt      *time.Time   `json:"paid_at,omitempty"`
}

type Commission struct {
	ID              uuid.UUID        `json:"id"`
	StaffID         uuid.UUID        `json:"staff_id"`
	QuoteID         uuid.UUID        `json:"quote_id"`
	LeadID          uuid.UUID        `json:"lead_id"`
	Type            CommissionType   `json:"type"`
	MRR             float64          `json:"mrr"`
	ACV             float64          `json:"acv"`
	Rate            float64          `json:"rate"`
	TotalCommission float64          `json:"total_commission"`
	Status          CommissionStatus `json:"status"`
	PayoutSchedule  []PayoutEntry    `json:"payout_schedule"`
	CreatedAt       time.Time        `json:"created_at"`
}

// CommissionRow is one ledger line: a commission with its schedule tallied.
type CommissionRow struct {
	Commission Commission `json:"commission"`
	Earned     float64    `json:"earned"`
	Pending    float64    `json:"pending"`
	Cancelled  float64    `json:"cancelled"`
}

// CommissionLedger is the aggregated read-model surfaced in dashboards.
type CommissionLedger struct {
	StaffID   *uuid.UUID      `json:"staff_id,omitempty"`
	Rows      []CommissionRow `json:"rows"`
	Earned    float64         `json:"earned"`
	Pending   float64         `json:"pending"`
	Cancelled float64         `json:"cancelled"`
}
