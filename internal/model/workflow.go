package model

import (
	"time"

	"github.com/google/uuid"
)

// QuoteAcceptance is the full write set produced by accepting a quote. The
// repository persists it in a single transaction.
type QuoteAcceptance struct {
	QuoteID    uuid.UUID
	LeadID     uuid.UUID
	AcceptedAt time.Time
	Contract   Contract
	WorkOrders []WorkOrder
	Activity   ActivityLog
}

// QuoteRejection is the write set for rejecting a quote.
type QuoteRejection struct {
	QuoteID  uuid.UUID
	LeadID   uuid.UUID
	Reason   string
	Activity ActivityLog
}

// InvoiceRun is the write set of one billing conversion: the client invoice,
// one remittance per vendor with assigned work, the audit entry, and the
// notification waiting for the mail worker.
type InvoiceRun struct {
	Invoice     Invoice
	Remittances []VendorRemittance
	Activity    ActivityLog
	Mail        *MailMessage
}
