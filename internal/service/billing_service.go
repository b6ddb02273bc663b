package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/config"
	"github.com/brightserv/facilityops/internal/model"
)

// InvoicePDFGenerator renders a client invoice statement.
type InvoicePDFGenerator interface {
	Generate(invoice model.Invoice, remittances []model.VendorRemittance) ([]byte, error)
}

// InvoiceExcelGenerator renders an invoice workbook.
type InvoiceExcelGenerator interface {
	GenerateInvoice(invoice model.Invoice, remittances []model.VendorRemittance) ([]byte, error)
}

// BillingService converts a client's active work orders into one invoice and
// one remittance per vendor for a billing period.
type BillingService struct {
	leads   LeadStore
	orders  WorkOrderStore
	vendors VendorStore
	billing BillingStore
	taxes   TaxLookup
	pdf     InvoicePDFGenerator
	excel   InvoiceExcelGenerator
	cfg     *config.Config
}

func NewBillingService(
	leads LeadStore,
	orders WorkOrderStore,
	vendors VendorStore,
	billing BillingStore,
	taxes TaxLookup,
	pdf InvoicePDFGenerator,
	excel InvoiceExcelGenerator,
	cfg *config.Config,
) *BillingService {
	return &BillingService{
		leads:   leads,
		orders:  orders,
		vendors: vendors,
		billing: billing,
		taxes:   taxes,
		pdf:     pdf,
		excel:   excel,
		cfg:     cfg,
	}
}

type GenerateInvoiceInput struct {
	LeadID      uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	DueDate     time.Time
	Principal   model.Principal
}

type GenerateInvoiceResult struct {
	Invoice     model.Invoice
	Remittances []model.VendorRemittance
}

// GenerateInvoice builds and persists the billing run. The invoice id is
// derived from the lead and period, remittance ids from the invoice and
// vendor, so regenerating the same period cannot duplicate documents.
func (s *BillingService) GenerateInvoice(ctx context.Context, input GenerateInvoiceInput) (*GenerateInvoiceResult, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsAccounting()) {
		return nil, ErrPermissionDenied
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: billing period is required", ErrInvalidInput)
	}
	periodStart := dateOnly(input.PeriodStart)
	periodEnd := dateOnly(input.PeriodEnd)
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before period_end", ErrInvalidInput)
	}

	lead, err := s.leads.Get(ctx, input.LeadID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	orders, err := s.orders.ListBillable(ctx, input.LeadID, periodEnd)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNoBillableWork
	}

	dueDate := dateOnly(input.DueDate)
	if dueDate.IsZero() {
		dueDate = DefaultDueDate(periodEnd, s.cfg.Billing.DueDay)
	}

	now := time.Now().UTC()
	invoiceID := uuid.NewSHA1(input.LeadID, []byte("invoice:"+periodEnd.Format("2006-01")))

	lineItems := make([]model.InvoiceLineItem, 0, len(orders))
	subtotal := 0.0
	totalTax := 0.0
	for _, order := range orders {
		rate, err := s.taxes.RateForZip(ctx, order.Zip)
		if err != nil {
			return nil, err
		}
		taxAmount := round2(order.ClientRate * rate)
		lineItems = append(lineItems, model.InvoiceLineItem{
			WorkOrderID: order.ID,
			Location:    order.Location,
			ServiceType: order.ServiceType,
			Amount:      order.ClientRate,
			TaxRate:     rate,
			TaxAmount:   taxAmount,
		})
		subtotal += order.ClientRate
		totalTax += taxAmount
	}
	subtotal = round2(subtotal)
	totalTax = round2(totalTax)
	totalAmount := round2(subtotal + totalTax)

	payouts, totalPayouts := groupVendorPayouts(orders)
	for i := range payouts {
		vendor, err := s.vendors.Get(ctx, payouts[i].VendorID)
		if err == nil {
			payouts[i].VendorName = vendor.Name
		} else if err != gorm.ErrRecordNotFound {
			return nil, err
		} else {
			// Referential gap: fall back to the raw id for display.
			payouts[i].VendorName = payouts[i].VendorID.String()
		}
	}

	invoice := model.Invoice{
		ID:            invoiceID,
		LeadID:        lead.ID,
		BusinessName:  lead.BusinessName,
		LineItems:     lineItems,
		Subtotal:      subtotal,
		TotalTax:      totalTax,
		TotalAmount:   totalAmount,
		VendorPayouts: payouts,
		TotalPayouts:  totalPayouts,
		GrossMargin:   round2(totalAmount - totalPayouts),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		DueDate:       dueDate,
		PaymentToken:  newSecret(),
		Status:        model.InvoiceStatusPending,
		CreatedAt:     now,
	}

	remittances := buildRemittances(invoice, orders, now)

	run := model.InvoiceRun{
		Invoice:     invoice,
		Remittances: remittances,
		Activity: model.ActivityLog{
			ID:        uuid.New(),
			Action:    "invoice.generated",
			ActorID:   input.Principal.UserID,
			ActorName: input.Principal.Name,
			Details: map[string]any{
				"invoice_id":   invoice.ID.String(),
				"lead_id":      lead.ID.String(),
				"line_items":   len(lineItems),
				"remittances":  len(remittances),
				"total_amount": invoice.TotalAmount,
				"gross_margin": invoice.GrossMargin,
			},
			CreatedAt: now,
		},
	}
	if lead.Email != "" {
		run.Mail = &model.MailMessage{
			ID:           uuid.New(),
			To:           lead.Email,
			Subject:      fmt.Sprintf("Invoice for %s", periodEnd.Format("January 2006")),
			TemplateType: "invoice_notification",
			TemplateData: map[string]any{
				"business_name": lead.BusinessName,
				"total_amount":  invoice.TotalAmount,
				"due_date":      dueDate.Format("2006-01-02"),
				"payment_token": invoice.PaymentToken,
			},
			Status:    model.MailStatusPending,
			CreatedAt: now,
		}
	}

	if err := s.billing.SaveInvoiceRun(ctx, run); err != nil {
		return nil, err
	}
	return &GenerateInvoiceResult{Invoice: invoice, Remittances: remittances}, nil
}

// groupVendorPayouts buckets work orders by their current vendor. Orders
// with no assignment or no rate contribute nothing.
func groupVendorPayouts(orders []model.WorkOrder) ([]model.VendorPayout, float64) {
	index := make(map[uuid.UUID]int)
	payouts := make([]model.VendorPayout, 0)
	total := 0.0

	for _, order := range orders {
		vendor := order.CurrentVendor()
		if vendor == nil || vendor.VendorRate <= 0 {
			continue
		}
		pos, ok := index[vendor.VendorID]
		if !ok {
			payouts = append(payouts, model.VendorPayout{VendorID: vendor.VendorID})
			pos = len(payouts) - 1
			index[vendor.VendorID] = pos
		}
		payouts[pos].Amount = round2(payouts[pos].Amount + vendor.VendorRate)
		payouts[pos].WorkOrderIDs = append(payouts[pos].WorkOrderIDs, order.ID)
		total = round2(total + vendor.VendorRate)
	}
	return payouts, total
}

// buildRemittances creates one statement per vendor payout. Remittance line
// items are priced at vendor rates with tax suppressed under the resale
// certificate; the client-side tax on the paired invoice is unaffected.
func buildRemittances(invoice model.Invoice, orders []model.WorkOrder, now time.Time) []model.VendorRemittance {
	byID := make(map[uuid.UUID]model.WorkOrder, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
	}

	remittances := make([]model.VendorRemittance, 0, len(invoice.VendorPayouts))
	for _, payout := range invoice.VendorPayouts {
		lineItems := make([]model.RemittanceLineItem, 0, len(payout.WorkOrderIDs))
		for _, orderID := range payout.WorkOrderIDs {
			order := byID[orderID]
			vendor := order.CurrentVendor()
			if vendor == nil {
				continue
			}
			lineItems = append(lineItems, model.RemittanceLineItem{
				WorkOrderID:   order.ID,
				Location:      order.Location,
				ServiceType:   order.ServiceType,
				Amount:        vendor.VendorRate,
				TaxAmount:     0,
				TaxExempt:     true,
				CertificateID: model.ResaleCertificate,
			})
		}

		remittances = append(remittances, model.VendorRemittance{
			ID:            uuid.NewSHA1(invoice.ID, []byte("remittance:"+payout.VendorID.String())),
			InvoiceID:     invoice.ID,
			VendorID:      payout.VendorID,
			VendorName:    payout.VendorName,
			LineItems:     lineItems,
			TotalAmount:   payout.Amount,
			TotalTax:      0,
			TaxExempt:     true,
			CertificateID: model.ResaleCertificate,
			PeriodStart:   invoice.PeriodStart,
			PeriodEnd:     invoice.PeriodEnd,
			DueDate:       invoice.DueDate,
			Status:        model.RemittanceStatusPending,
			CreatedAt:     now,
		})
	}
	return remittances
}

// DefaultDueDate is the dueDay of the month before the billing period ends.
// Invoices are generated retrospectively, so the due date precedes the
// period's end.
func DefaultDueDate(periodEnd time.Time, dueDay int) time.Time {
	firstOfMonth := time.Date(periodEnd.Year(), periodEnd.Month(), 1, 0, 0, 0, 0, time.UTC)
	prior := firstOfMonth.AddDate(0, -1, 0)
	return time.Date(prior.Year(), prior.Month(), dueDay, 0, 0, 0, 0, time.UTC)
}

func (s *BillingService) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.billing.GetInvoice(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

func (s *BillingService) ListInvoices(ctx context.Context, leadID *uuid.UUID) ([]model.Invoice, error) {
	return s.billing.ListInvoices(ctx, leadID)
}

func (s *BillingService) ListRemittances(ctx context.Context, invoiceID uuid.UUID) ([]model.VendorRemittance, error) {
	return s.billing.ListRemittancesForInvoice(ctx, invoiceID)
}

// MissingRemittances reports vendor ids present in the invoice's payouts
// that have no stored remittance. A non-empty result means a past billing
// run was interrupted and should be re-run.
func (s *BillingService) MissingRemittances(ctx context.Context, invoiceID uuid.UUID) ([]uuid.UUID, error) {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	remittances, err := s.billing.ListRemittancesForInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	present := make(map[uuid.UUID]bool, len(remittances))
	for _, remittance := range remittances {
		present[remittance.VendorID] = true
	}

	var missing []uuid.UUID
	for _, payout := range invoice.VendorPayouts {
		if !present[payout.VendorID] {
			missing = append(missing, payout.VendorID)
		}
	}
	return missing, nil
}

func (s *BillingService) MarkInvoicePaid(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if !(principal.IsAdmin() || principal.IsAccounting()) {
		return ErrPermissionDenied
	}
	if _, err := s.GetInvoice(ctx, id); err != nil {
		return err
	}
	return s.billing.MarkInvoicePaid(ctx, id, time.Now().UTC())
}

type MarkRemittancePaidInput struct {
	RemittanceID uuid.UUID
	Method       string
	Reference    string
	Principal    model.Principal
}

func (s *BillingService) MarkRemittancePaid(ctx context.Context, input MarkRemittancePaidInput) error {
	if !(input.Principal.IsAdmin() || input.Principal.IsAccounting()) {
		return ErrPermissionDenied
	}
	remittance, err := s.billing.GetRemittance(ctx, input.RemittanceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if remittance.Status == model.RemittanceStatusPaid || remittance.Status == model.RemittanceStatusVoid {
		return fmt.Errorf("%w: remittance is %s", ErrInvalidState, remittance.Status)
	}
	return s.billing.MarkRemittancePaid(ctx, input.RemittanceID, input.Method, input.Reference, time.Now().UTC())
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *BillingService) ExportInvoicePDF(ctx context.Context, id uuid.UUID, principal model.Principal) (*ExportResult, error) {
	if !(principal.IsAdmin() || principal.IsAccounting()) {
		return nil, ErrPermissionDenied
	}
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	remittances, err := s.billing.ListRemittancesForInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*invoice, remittances)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("invoice-%s-%s.pdf", invoice.PeriodEnd.Format("200601"), invoice.ID),
		Content:  content,
	}, nil
}

func (s *BillingService) ExportInvoiceExcel(ctx context.Context, id uuid.UUID, principal model.Principal) (*ExportResult, error) {
	if !(principal.IsAdmin() || principal.IsAccounting()) {
		return nil, ErrPermissionDenied
	}
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	remittances, err := s.billing.ListRemittancesForInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.GenerateInvoice(*invoice, remittances)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("invoice-%s-%s.xlsx", invoice.PeriodEnd.Format("200601"), invoice.ID),
		Content:  content,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
