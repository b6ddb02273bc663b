package model

import (
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusContacted   LeadStatus = "CONTACTED"
	LeadStatusQualified   LeadStatus = "QUALIFIED"
	LeadStatusWalkthrough LeadStatus = "WALKTHROUGH"
	LeadStatusProposal    LeadStatus = "PROPOSAL"
	LeadStatusQuoted      LeadStatus = "QUOTED"
	LeadStatusWon         LeadStatus = "WON"
	LeadStatusLost        LeadStatus = "LOST"
	LeadStatusChurned     LeadStatus = "CHURNED"
)

// AuditSlot is a time window a prospect proposed for a walkthrough visit.
type AuditSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Lead struct {
	ID           uuid.UUID   `json:"id"`
	BusinessName string      `json:"business_name"`
	ContactName  string      `json:"contact_name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	Zip          string      `json:"zip"`
	FacilityType string      `json:"facility_type"`
	Status       LeadStatus  `json:"status"`
	Source       string      `json:"source"`
	Notes        string      `json:"notes"`
	AuditSlots   []AuditSlot `json:"audit_slots,omitempty"`
	ContractID   *uuid.UUID  `json:"contract_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// leadTransitions lists the forward pipeline. Terminal states have no
// successors; WON/LOST/CHURNED are reachable from any open state.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:         {LeadStatusContacted},
	LeadStatusContacted:   {LeadStatusQualified},
	LeadStatusQualified:   {LeadStatusWalkthrough},
	LeadStatusWalkthrough: {LeadStatusProposal},
	LeadStatusProposal:    {LeadStatusQuoted},
	LeadStatusQuoted:      {},
}

func (s LeadStatus) Terminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost || s == LeadStatusChurned
}

// CanTransition reports whether the pipeline allows moving to next.
func (s LeadStatus) CanTransition(next LeadStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == LeadStatusWon || next == LeadStatusLost || next == LeadStatusChurned {
		return true
	}
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
