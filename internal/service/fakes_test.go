package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

// In-memory stores backing the service tests. Missing rows surface as
// gorm.ErrRecordNotFound, matching the repository layer.

type fakeLeadStore struct {
	leads map[uuid.UUID]model.Lead
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: make(map[uuid.UUID]model.Lead)}
}

func (s *fakeLeadStore) Create(_ context.Context, lead *model.Lead) error {
	s.leads[lead.ID] = *lead
	return nil
}

func (s *fakeLeadStore) Get(_ context.Context, id uuid.UUID) (*model.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &lead, nil
}

func (s *fakeLeadStore) List(_ context.Context, status *model.LeadStatus) ([]model.Lead, error) {
	var out []model.Lead
	for _, lead := range s.leads {
		if status == nil || lead.Status == *status {
			out = append(out, lead)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeLeadStore) Update(_ context.Context, lead *model.Lead) error {
	if _, ok := s.leads[lead.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.leads[lead.ID] = *lead
	return nil
}

func (s *fakeLeadStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.LeadStatus, contractID *uuid.UUID) error {
	lead, ok := s.leads[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	lead.Status = status
	if contractID != nil {
		lead.ContractID = contractID
	}
	s.leads[id] = lead
	return nil
}

type fakeQuoteStore struct {
	quotes map[uuid.UUID]model.Quote
}

func newFakeQuoteStore() *fakeQuoteStore {
	return &fakeQuoteStore{quotes: make(map[uuid.UUID]model.Quote)}
}

func (s *fakeQuoteStore) Create(_ context.Context, quote *model.Quote) error {
	s.quotes[quote.ID] = *quote
	return nil
}

func (s *fakeQuoteStore) Get(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	quote, ok := s.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &quote, nil
}

func (s *fakeQuoteStore) GetByToken(_ context.Context, token string) (*model.Quote, error) {
	for _, quote := range s.quotes {
		if quote.ReviewToken == token {
			q := quote
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeQuoteStore) ListForLead(_ context.Context, leadID uuid.UUID) ([]model.Quote, error) {
	var out []model.Quote
	for _, quote := range s.quotes {
		if quote.LeadID == leadID {
			out = append(out, quote)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *fakeQuoteStore) NextVersion(_ context.Context, leadID uuid.UUID) (int, error) {
	max := 0
	for _, quote := range s.quotes {
		if quote.LeadID == leadID && quote.Version > max {
			max = quote.Version
		}
	}
	return max + 1, nil
}

func (s *fakeQuoteStore) SetStatus(_ context.Context, id uuid.UUID, status model.QuoteStatus, acceptedAt *time.Time) error {
	quote, ok := s.quotes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	quote.Status = status
	if acceptedAt != nil {
		quote.AcceptedAt = acceptedAt
	}
	s.quotes[id] = quote
	return nil
}

type fakeTemplateStore struct {
	templates map[uuid.UUID]model.ScopeTemplate
}

func newFakeTemplateStore() *fakeTemplateStore {
	return &fakeTemplateStore{templates: make(map[uuid.UUID]model.ScopeTemplate)}
}

func (s *fakeTemplateStore) Get(_ context.Context, id uuid.UUID) (*model.ScopeTemplate, error) {
	template, ok := s.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &template, nil
}

func (s *fakeTemplateStore) Create(_ context.Context, template *model.ScopeTemplate) error {
	s.templates[template.ID] = *template
	return nil
}

func (s *fakeTemplateStore) ForServiceType(_ context.Context, serviceType string) (*model.ScopeTemplate, error) {
	for _, template := range s.templates {
		if template.ServiceType == serviceType {
			t := template
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeWorkflowStore applies a quote acceptance the way the transactional
// repository does, against the sibling fakes.
type fakeWorkflowStore struct {
	leads      *fakeLeadStore
	quotes     *fakeQuoteStore
	orders     *fakeWorkOrderStore
	contracts  map[uuid.UUID]model.Contract
	activities []model.ActivityLog
	failAfter  int // fail after N work-order inserts when > 0
}

func newFakeWorkflowStore(leads *fakeLeadStore, quotes *fakeQuoteStore, orders *fakeWorkOrderStore) *fakeWorkflowStore {
	return &fakeWorkflowStore{
		leads:     leads,
		quotes:    quotes,
		orders:    orders,
		contracts: make(map[uuid.UUID]model.Contract),
	}
}

func (s *fakeWorkflowStore) SaveAcceptance(ctx context.Context, rec model.QuoteAcceptance) error {
	s.contracts[rec.Contract.ID] = rec.Contract
	for i, order := range rec.WorkOrders {
		if s.failAfter > 0 && i >= s.failAfter {
			return gorm.ErrInvalidTransaction
		}
		if _, exists := s.orders.orders[order.ID]; !exists {
			s.orders.orders[order.ID] = order
		}
	}
	now := rec.AcceptedAt
	if err := s.quotes.SetStatus(ctx, rec.QuoteID, model.QuoteStatusAccepted, &now); err != nil {
		return err
	}
	contractID := rec.Contract.ID
	if err := s.leads.UpdateStatus(ctx, rec.LeadID, model.LeadStatusWon, &contractID); err != nil {
		return err
	}
	s.activities = append(s.activities, rec.Activity)
	return nil
}

func (s *fakeWorkflowStore) SaveRejection(ctx context.Context, rec model.QuoteRejection) error {
	if err := s.quotes.SetStatus(ctx, rec.QuoteID, model.QuoteStatusRejected, nil); err != nil {
		return err
	}
	if err := s.leads.UpdateStatus(ctx, rec.LeadID, model.LeadStatusLost, nil); err != nil {
		return err
	}
	s.activities = append(s.activities, rec.Activity)
	return nil
}

type fakeWorkOrderStore struct {
	orders   map[uuid.UUID]model.WorkOrder
	checkIns map[uuid.UUID][]model.CheckIn
}

func newFakeWorkOrderStore() *fakeWorkOrderStore {
	return &fakeWorkOrderStore{
		orders:   make(map[uuid.UUID]model.WorkOrder),
		checkIns: make(map[uuid.UUID][]model.CheckIn),
	}
}

func (s *fakeWorkOrderStore) Get(_ context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &order, nil
}

func (s *fakeWorkOrderStore) ListForLead(_ context.Context, leadID uuid.UUID) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, order := range s.orders {
		if order.LeadID == leadID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

func (s *fakeWorkOrderStore) ListBillable(_ context.Context, leadID uuid.UUID, periodEnd time.Time) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, order := range s.orders {
		if order.LeadID != leadID || order.Status != model.WorkOrderStatusActive {
			continue
		}
		if order.ServiceStartDate != nil && order.ServiceStartDate.After(periodEnd) {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

func (s *fakeWorkOrderStore) Update(_ context.Context, order *model.WorkOrder) error {
	if _, ok := s.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.orders[order.ID] = *order
	return nil
}

func (s *fakeWorkOrderStore) SaveCheckIn(_ context.Context, checkIn *model.CheckIn, tasks []model.Task) error {
	order, ok := s.orders[checkIn.WorkOrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Tasks = tasks
	s.orders[order.ID] = order
	s.checkIns[order.ID] = append(s.checkIns[order.ID], *checkIn)
	return nil
}

func (s *fakeWorkOrderStore) ListCheckIns(_ context.Context, workOrderID uuid.UUID) ([]model.CheckIn, error) {
	return s.checkIns[workOrderID], nil
}

type fakeBillingStore struct {
	invoices    map[uuid.UUID]model.Invoice
	remittances map[uuid.UUID]model.VendorRemittance
	activities  []model.ActivityLog
	mail        []model.MailMessage
	failRemits  bool // drop remittance writes to simulate a partial run
}

func newFakeBillingStore() *fakeBillingStore {
	return &fakeBillingStore{
		invoices:    make(map[uuid.UUID]model.Invoice),
		remittances: make(map[uuid.UUID]model.VendorRemittance),
	}
}

// SaveInvoiceRun mirrors the repository's on-conflict semantics: existing
// invoices and remittances are left untouched, and the activity entry and
// mail notification are recorded only when the invoice row is new.
func (s *fakeBillingStore) SaveInvoiceRun(_ context.Context, run model.InvoiceRun) error {
	_, exists := s.invoices[run.Invoice.ID]
	if !exists {
		s.invoices[run.Invoice.ID] = run.Invoice
	}
	if !s.failRemits {
		for _, remittance := range run.Remittances {
			if _, dup := s.remittances[remittance.ID]; !dup {
				s.remittances[remittance.ID] = remittance
			}
		}
	}
	if exists {
		return nil
	}
	s.activities = append(s.activities, run.Activity)
	if run.Mail != nil {
		s.mail = append(s.mail, *run.Mail)
	}
	return nil
}

func (s *fakeBillingStore) GetInvoice(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	invoice, ok := s.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &invoice, nil
}

func (s *fakeBillingStore) ListInvoices(_ context.Context, leadID *uuid.UUID) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, invoice := range s.invoices {
		if leadID == nil || invoice.LeadID == *leadID {
			out = append(out, invoice)
		}
	}
	return out, nil
}

func (s *fakeBillingStore) MarkInvoicePaid(_ context.Context, id uuid.UUID, paidAt time.Time) error {
	invoice, ok := s.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	invoice.Status = model.InvoiceStatusPaid
	invoice.PaidAt = &paidAt
	s.invoices[id] = invoice
	return nil
}

func (s *fakeBillingStore) GetRemittance(_ context.Context, id uuid.UUID) (*model.VendorRemittance, error) {
	remittance, ok := s.remittances[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &remittance, nil
}

func (s *fakeBillingStore) ListRemittancesForInvoice(_ context.Context, invoiceID uuid.UUID) ([]model.VendorRemittance, error) {
	var out []model.VendorRemittance
	for _, remittance := range s.remittances {
		if remittance.InvoiceID == invoiceID {
			out = append(out, remittance)
		}
	}
	return out, nil
}

func (s *fakeBillingStore) MarkRemittancePaid(_ context.Context, id uuid.UUID, method, reference string, paidAt time.Time) error {
	remittance, ok := s.remittances[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	remittance.Status = model.RemittanceStatusPaid
	remittance.PaymentMethod = method
	remittance.PaymentReference = reference
	remittance.PaidAt = &paidAt
	s.remittances[id] = remittance
	return nil
}

type fakeCommissionStore struct {
	commissions map[uuid.UUID]model.Commission
	activity    *fakeActivityStore
}

func newFakeCommissionStore(activity *fakeActivityStore) *fakeCommissionStore {
	return &fakeCommissionStore{
		commissions: make(map[uuid.UUID]model.Commission),
		activity:    activity,
	}
}

func (s *fakeCommissionStore) Create(_ context.Context, commission *model.Commission, activity *model.ActivityLog) error {
	s.commissions[commission.ID] = *commission
	s.activity.entries = append(s.activity.entries, *activity)
	return nil
}

func (s *fakeCommissionStore) Get(_ context.Context, id uuid.UUID) (*model.Commission, error) {
	commission, ok := s.commissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &commission, nil
}

func (s *fakeCommissionStore) List(_ context.Context, staffID *uuid.UUID) ([]model.Commission, error) {
	var out []model.Commission
	for _, commission := range s.commissions {
		if staffID == nil || commission.StaffID == *staffID {
			out = append(out, commission)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeCommissionStore) UpdateSchedule(_ context.Context, id uuid.UUID, schedule []model.PayoutEntry, status model.CommissionStatus, activity *model.ActivityLog) error {
	commission, ok := s.commissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	commission.PayoutSchedule = schedule
	commission.Status = status
	s.commissions[id] = commission
	s.activity.entries = append(s.activity.entries, *activity)
	return nil
}

type fakeVendorStore struct {
	vendors map[uuid.UUID]model.Vendor
}

func newFakeVendorStore() *fakeVendorStore {
	return &fakeVendorStore{vendors: make(map[uuid.UUID]model.Vendor)}
}

func (s *fakeVendorStore) Create(_ context.Context, vendor *model.Vendor) error {
	s.vendors[vendor.ID] = *vendor
	return nil
}

func (s *fakeVendorStore) Get(_ context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &vendor, nil
}

func (s *fakeVendorStore) List(_ context.Context) ([]model.Vendor, error) {
	var out []model.Vendor
	for _, vendor := range s.vendors {
		out = append(out, vendor)
	}
	return out, nil
}

type fakeActivityStore struct {
	entries []model.ActivityLog
}

func (s *fakeActivityStore) Append(_ context.Context, entry *model.ActivityLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

type fakeMailOutbox struct {
	messages []model.MailMessage
}

func (s *fakeMailOutbox) Enqueue(_ context.Context, message *model.MailMessage) error {
	s.messages = append(s.messages, *message)
	return nil
}

type fakeTaxLookup struct {
	rates       map[string]float64
	defaultRate float64
}

func (t *fakeTaxLookup) RateForZip(_ context.Context, zip string) (float64, error) {
	if rate, ok := t.rates[zip]; ok {
		return rate, nil
	}
	return t.defaultRate, nil
}
