package model

import (
	"time"

	"github.com/google/uuid"
)

type RemittanceStatus string

const (
	RemittanceStatusPending RemittanceStatus = "PENDING"
	RemittanceStatusSent    RemittanceStatus = "SENT"
	RemittanceStatusPaid    RemittanceStatus = "PAID"
	RemittanceStatusVoid    RemittanceStatus = "VOID"
)

// ResaleCertificate is the exemption certificate under which the operating
// company pays vendors tax-free. Remittance tax is always suppressed.
const ResaleCertificate = "ST-120.1"

type RemittanceLineItem struct {
	WorkOrderID   uuid.UUID `json:"work_order_id"`
	Location      string    `json:"location"`
	ServiceType   string    `json:"service_type"`
	Amount        float64   `json:"amount"`
	TaxAmount     float64   `json:"tax_amount"`
	TaxExempt     bool      `json:"tax_exempt"`
	CertificateID string    `json:"certificate_id"`
}

// VendorRemittance states what one vendor is owed for one billing period,
// created alongside the invoice that bills the same work.
type VendorRemittance struct {
	ID               uuid.UUID            `json:"id"`
	InvoiceID        uuid.UUID            `json:"invoice_id"`
	VendorID         uuid.UUID            `json:"vendor_id"`
	VendorName       string               `json:"vendor_name"`
	LineItems        []RemittanceLineItem `json:"line_items"`
	TotalAmount      float64              `json:"total_amount"`
	TotalTax         float64              `json:"total_tax"`
	TaxExempt        bool                 `json:"tax_exempt"`
	CertificateID    string               `json:"certificate_id"`
	PeriodStart      time.Time            `json:"period_start"`
	PeriodEnd        time.Time            `json:"period_end"`
	DueDate          time.Time            `json:"due_date"`
	Status           RemittanceStatus     `json:"status"`
	PaymentMethod    string               `json:"payment_method,omitempty"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	PaidAt           *time.Time           `json:"paid_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}
