package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightserv/facilityops/internal/model"
)

// Store contracts consumed by the services. The repository package provides
// the postgres implementations; tests substitute in-memory fakes.

type LeadStore interface {
	Create(ctx context.Context, lead *model.Lead) error
	Get(ctx context.Context, id uuid.UUID) (*model.Lead, error)
	List(ctx context.Context, status *model.LeadStatus) ([]model.Lead, error)
	Update(ctx context.Context, lead *model.Lead) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus, contractID *uuid.UUID) error
}

type QuoteStore interface {
	Create(ctx context.Context, quote *model.Quote) error
	Get(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	GetByToken(ctx context.Context, token string) (*model.Quote, error)
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]model.Quote, error)
	NextVersion(ctx context.Context, leadID uuid.UUID) (int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.QuoteStatus, acceptedAt *time.Time) error
}

type TemplateStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.ScopeTemplate, error)
	ForServiceType(ctx context.Context, serviceType string) (*model.ScopeTemplate, error)
	Create(ctx context.Context, template *model.ScopeTemplate) error
}

type WorkflowStore interface {
	SaveAcceptance(ctx context.Context, rec model.QuoteAcceptance) error
	SaveRejection(ctx context.Context, rec model.QuoteRejection) error
}

type WorkOrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]model.WorkOrder, error)
	ListBillable(ctx context.Context, leadID uuid.UUID, periodEnd time.Time) ([]model.WorkOrder, error)
	Update(ctx context.Context, order *model.WorkOrder) error
	SaveCheckIn(ctx context.Context, checkIn *model.CheckIn, tasks []model.Task) error
	ListCheckIns(ctx context.Context, workOrderID uuid.UUID) ([]model.CheckIn, error)
}

type BillingStore interface {
	SaveInvoiceRun(ctx context.Context, run model.InvoiceRun) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, leadID *uuid.UUID) ([]model.Invoice, error)
	MarkInvoicePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	GetRemittance(ctx context.Context, id uuid.UUID) (*model.VendorRemittance, error)
	ListRemittancesForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.VendorRemittance, error)
	MarkRemittancePaid(ctx context.Context, id uuid.UUID, method, reference string, paidAt time.Time) error
}

type CommissionStore interface {
	Create(ctx context.Context, commission *model.Commission, activity *model.ActivityLog) error
	Get(ctx context.Context, id uuid.UUID) (*model.Commission, error)
	List(ctx context.Context, staffID *uuid.UUID) ([]model.Commission, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, schedule []model.PayoutEntry, status model.CommissionStatus, activity *model.ActivityLog) error
}

type VendorStore interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	List(ctx context.Context) ([]model.Vendor, error)
}

type ActivityStore interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
}

type MailOutbox interface {
	Enqueue(ctx context.Context, message *model.MailMessage) error
}

// TaxLookup resolves the sales-tax rate for a service location.
type TaxLookup interface {
	RateForZip(ctx context.Context, zip string) (float64, error)
}
