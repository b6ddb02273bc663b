package model

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

type InvoiceLineItem struct {
	WorkOrderID uuid.UUID `json:"work_order_id"`
	Location    string    `json:"location"`
	ServiceType string    `json:"service_type"`
	Amount      float64   `json:"amount"`
	TaxRate     float64   `json:"tax_rate"`
	TaxAmount   float64   `json:"tax_amount"`
}

// VendorPayout is the per-vendor slice of an invoice's work, at vendor rates.
type VendorPayout struct {
	VendorID     uuid.UUID   `json:"vendor_id"`
	VendorName   string      `json:"vendor_name"`
	Amount       float64     `json:"amount"`
	WorkOrderIDs []uuid.UUID `json:"work_order_ids"`
}

type Invoice struct {
	ID            uuid.UUID         `json:"id"`
	LeadID        uuid.UUID         `json:"lead_id"`
	BusinessName  string            `json:"business_name"`
	LineItems     []InvoiceLineItem `json:"line_items"`
	Subtotal      float64           `json:"subtotal"`
	TotalTax      float64           `json:"total_tax"`
	TotalAmount   float64           `json:"total_amount"`
	VendorPayouts []VendorPayout    `json:"vendor_payouts"`
	TotalPayouts  float64           `json:"total_payouts"`
	GrossMargin   float64           `json:"gross_margin"`
	PeriodStart   time.Time         `json:"period_start"`
	PeriodEnd     time.Time         `json:"period_end"`
	DueDate       time.Time         `json:"due_date"`
	PaymentToken  string            `json:"payment_token"`
	Status        InvoiceStatus     `json:"status"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
