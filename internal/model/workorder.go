package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkOrderStatus string

const (
	WorkOrderStatusPendingAssignment WorkOrderStatus = "PENDING_ASSIGNMENT"
	WorkOrderStatusActive            WorkOrderStatus = "ACTIVE"
	WorkOrderStatusPaused            WorkOrderStatus = "PAUSED"
	WorkOrderStatusCompleted         WorkOrderStatus = "COMPLETED"
	WorkOrderStatusCancelled         WorkOrderStatus = "CANCELLED"
)

type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Required  bool   `json:"required"`
	Completed bool   `json:"completed"`
}

// WeekdayMask marks the days a recurring service runs.
type WeekdayMask struct {
	Mon bool `json:"mon"`
	Tue bool `json:"tue"`
	Wed bool `json:"wed"`
	Thu bool `json:"thu"`
	Fri bool `json:"fri"`
	Sat bool `json:"sat"`
	Sun bool `json:"sun"`
}

// WeekdayMaskMonFri is the default service schedule.
func WeekdayMaskMonFri() WeekdayMask {
	return WeekdayMask{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true}
}

type Schedule struct {
	Frequency ServiceFrequency `json:"frequency"`
	Days      WeekdayMask      `json:"days"`
	StartTime string           `json:"start_time"`
}

// VendorAssignment is one entry in a work order's vendor history. The
// current vendor is the last entry.
type VendorAssignment struct {
	VendorID   uuid.UUID `json:"vendor_id"`
	VendorRate float64   `json:"vendor_rate"`
	AssignedBy uuid.UUID `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

type WorkOrder struct {
	ID               uuid.UUID          `json:"id"`
	LeadID           uuid.UUID          `json:"lead_id"`
	ContractID       uuid.UUID          `json:"contract_id"`
	Location         string             `json:"location"`
	Zip              string             `json:"zip"`
	ServiceType      string             `json:"service_type"`
	Tasks            []Task             `json:"tasks"`
	Schedule         Schedule           `json:"schedule"`
	VendorHistory    []VendorAssignment `json:"vendor_history"`
	ClientRate       float64            `json:"client_rate"`
	ServiceStartDate *time.Time         `json:"service_start_date,omitempty"`
	Status           WorkOrderStatus    `json:"status"`
	QRCodeSecret     string             `json:"qr_code_secret"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// CurrentVendor returns the latest vendor assignment, or nil when the work
// order has never been assigned.
func (w *WorkOrder) CurrentVendor() *VendorAssignment {
	if len(w.VendorHistory) == 0 {
		return nil
	}
	return &w.VendorHistory[len(w.VendorHistory)-1]
}

// Margin is clientRate minus the current vendor rate; nil when unassigned.
func (w *WorkOrder) Margin() *float64 {
	vendor := w.CurrentVendor()
	if vendor == nil {
		return nil
	}
	m := w.ClientRate - vendor.VendorRate
	return &m
}

var workOrderTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WorkOrderStatusPendingAssignment: {WorkOrderStatusActive, WorkOrderStatusCancelled},
	WorkOrderStatusActive:            {WorkOrderStatusPaused, WorkOrderStatusCompleted, WorkOrderStatusCancelled},
	WorkOrderStatusPaused:            {WorkOrderStatusActive, WorkOrderStatusCompleted, WorkOrderStatusCancelled},
}

func (s WorkOrderStatus) CanTransition(next WorkOrderStatus) bool {
	for _, allowed := range workOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s WorkOrderStatus) Terminal() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusCancelled
}
