package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/config"
	"github.com/brightserv/facilityops/internal/model"
)

// QuoteService owns quote versioning and the acceptance workflow that fans
// out into contract, work orders, and pipeline updates.
type QuoteService struct {
	leads     LeadStore
	quotes    QuoteStore
	templates TemplateStore
	workflow  WorkflowStore
	activity  ActivityStore
	mail      MailOutbox
	cfg       *config.Config
}

func NewQuoteService(
	leads LeadStore,
	quotes QuoteStore,
	templates TemplateStore,
	workflow WorkflowStore,
	activity ActivityStore,
	mail MailOutbox,
	cfg *config.Config,
) *QuoteService {
	return &QuoteService{
		leads:     leads,
		quotes:    quotes,
		templates: templates,
		workflow:  workflow,
		activity:  activity,
		mail:      mail,
		cfg:       cfg,
	}
}

type CreateTemplateInput struct {
	Name        string
	ServiceType string
	Tasks       []model.TemplateTask
	StartTime   string
	Principal   model.Principal
}

// CreateTemplate registers the task checklist for a service type. Line
// items created afterwards resolve against it by service type.
func (s *QuoteService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*model.ScopeTemplate, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsSales()) {
		return nil, ErrPermissionDenied
	}
	serviceType := strings.TrimSpace(input.ServiceType)
	if serviceType == "" {
		return nil, fmt.Errorf("%w: service_type is required", ErrInvalidInput)
	}
	if len(input.Tasks) == 0 {
		return nil, fmt.Errorf("%w: at least one task is required", ErrInvalidInput)
	}
	for i, task := range input.Tasks {
		if strings.TrimSpace(task.Name) == "" {
			return nil, fmt.Errorf("%w: task %d has no name", ErrInvalidInput, i)
		}
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = serviceType
	}
	template := &model.ScopeTemplate{
		ID:          uuid.New(),
		Name:        name,
		ServiceType: serviceType,
		Tasks:       input.Tasks,
		StartTime:   strings.TrimSpace(input.StartTime),
		CreatedAt:   time.Now().UTC(),
	}
	if template.StartTime == "" {
		template.StartTime = s.cfg.WorkOrders.DefaultStartTime
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

type QuoteLineItemInput struct {
	Location    string
	Zip         string
	ServiceType string
	Frequency   model.ServiceFrequency
	MonthlyRate float64
}

type CreateQuoteInput struct {
	LeadID       uuid.UUID
	LineItems    []QuoteLineItemInput
	TenureMonths int
	PaymentTerms string
	ExitClause   string
	Principal    model.Principal
}

// Create builds the next quote version for a lead. Scope templates are
// resolved per line item now, so acceptance never has to guess which
// checklist a service type meant.
func (s *QuoteService) Create(ctx context.Context, input CreateQuoteInput) (*model.Quote, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsSales()) {
		return nil, ErrPermissionDenied
	}
	if len(input.LineItems) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrInvalidInput)
	}
	if input.TenureMonths <= 0 {
		return nil, fmt.Errorf("%w: tenure_months must be positive", ErrInvalidInput)
	}

	lead, err := s.leads.Get(ctx, input.LeadID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items := make([]model.QuoteLineItem, 0, len(input.LineItems))
	total := 0.0
	for _, item := range input.LineItems {
		if item.MonthlyRate <= 0 {
			return nil, fmt.Errorf("%w: monthly_rate must be positive", ErrInvalidInput)
		}
		if strings.TrimSpace(item.ServiceType) == "" {
			return nil, fmt.Errorf("%w: service_type is required", ErrInvalidInput)
		}

		lineItem := model.QuoteLineItem{
			Location:    item.Location,
			Zip:         item.Zip,
			ServiceType: item.ServiceType,
			Frequency:   item.Frequency,
			MonthlyRate: item.MonthlyRate,
		}
		if lineItem.Zip == "" {
			lineItem.Zip = lead.Zip
		}
		template, err := s.templates.ForServiceType(ctx, item.ServiceType)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
		if template != nil {
			lineItem.ScopeTemplateID = &template.ID
		}

		items = append(items, lineItem)
		total += item.MonthlyRate
	}

	version, err := s.quotes.NextVersion(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	quote := &model.Quote{
		ID:               uuid.New(),
		LeadID:           input.LeadID,
		Version:          version,
		LineItems:        items,
		TotalMonthlyRate: total,
		TenureMonths:     input.TenureMonths,
		PaymentTerms:     input.PaymentTerms,
		ExitClause:       input.ExitClause,
		ReviewToken:      newSecret(),
		Status:           model.QuoteStatusDraft,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *QuoteService) Get(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	quote, err := s.quotes.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return quote, nil
}

func (s *QuoteService) GetByToken(ctx context.Context, token string) (*model.Quote, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	quote, err := s.quotes.GetByToken(ctx, token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return quote, nil
}

func (s *QuoteService) ListForLead(ctx context.Context, leadID uuid.UUID) ([]model.Quote, error) {
	return s.quotes.ListForLead(ctx, leadID)
}

// Send marks the quote SENT and queues the review mail for the lead.
func (s *QuoteService) Send(ctx context.Context, quoteID uuid.UUID, principal model.Principal) error {
	if !(principal.IsAdmin() || principal.IsSales()) {
		return ErrPermissionDenied
	}

	quote, err := s.Get(ctx, quoteID)
	if err != nil {
		return err
	}
	if quote.Status != model.QuoteStatusDraft {
		return fmt.Errorf("%w: only draft quotes can be sent", ErrInvalidState)
	}

	lead, err := s.leads.Get(ctx, quote.LeadID)
	if err != nil {
		return err
	}

	if err := s.quotes.SetStatus(ctx, quoteID, model.QuoteStatusSent, nil); err != nil {
		return err
	}

	if lead.Email != "" {
		message := &model.MailMessage{
			ID:           uuid.New(),
			To:           lead.Email,
			Subject:      fmt.Sprintf("Your service proposal for %s", lead.BusinessName),
			TemplateType: "quote_review",
			TemplateData: map[string]any{
				"business_name": lead.BusinessName,
				"review_url":    fmt.Sprintf("%s/%s", s.cfg.Quotes.ReviewBaseURL, quote.ReviewToken),
				"monthly_rate":  quote.TotalMonthlyRate,
			},
			Status:    model.MailStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.mail.Enqueue(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

type AcceptQuoteInput struct {
	QuoteID   uuid.UUID
	StartDate time.Time
	Principal model.Principal
}

type AcceptQuoteResult struct {
	Contract   model.Contract
	WorkOrders []model.WorkOrder
}

// Accept converts an open quote into a contract and one work order per line
// item, all persisted in a single transaction. Child ids are derived from
// the quote id, so a retried acceptance cannot create duplicates.
func (s *QuoteService) Accept(ctx context.Context, input AcceptQuoteInput) (*AcceptQuoteResult, error) {
	principal := input.Principal
	if !(principal.IsAdmin() || principal.IsSales() || principal.IsClient()) {
		return nil, ErrPermissionDenied
	}

	quote, err := s.Get(ctx, input.QuoteID)
	if err != nil {
		return nil, err
	}
	if !quote.Open() {
		return nil, ErrQuoteNotOpen
	}

	lead, err := s.leads.Get(ctx, quote.LeadID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(lead.Address) == "" {
		return nil, fmt.Errorf("%w: lead has no service address", ErrInvalidInput)
	}

	startDate := dateOnly(input.StartDate)
	if startDate.IsZero() {
		startDate = dateOnly(time.Now().UTC())
	}
	acceptedAt := time.Now().UTC()

	exitClause := quote.ExitClause
	if exitClause == "" {
		exitClause = model.DefaultExitClause
	}

	contract := model.Contract{
		ID:               uuid.NewSHA1(quote.ID, []byte("contract")),
		LeadID:           quote.LeadID,
		QuoteID:          quote.ID,
		BusinessName:     lead.BusinessName,
		TotalMonthlyRate: quote.TotalMonthlyRate,
		TenureMonths:     quote.TenureMonths,
		StartDate:        startDate,
		EndDate:          startDate.AddDate(0, quote.TenureMonths, 0),
		PaymentTerms:     quote.PaymentTerms,
		ExitClause:       exitClause,
		Status:           model.ContractStatusActive,
		CreatedAt:        acceptedAt,
	}

	workOrders := make([]model.WorkOrder, 0, len(quote.LineItems))
	for i, item := range quote.LineItems {
		order, err := s.buildWorkOrder(ctx, quote, lead, contract.ID, i, item, startDate, acceptedAt)
		if err != nil {
			return nil, err
		}
		workOrders = append(workOrders, *order)
	}

	rec := model.QuoteAcceptance{
		QuoteID:    quote.ID,
		LeadID:     quote.LeadID,
		AcceptedAt: acceptedAt,
		Contract:   contract,
		WorkOrders: workOrders,
		Activity: model.ActivityLog{
			ID:        uuid.New(),
			Action:    "quote.accepted",
			ActorID:   principal.UserID,
			ActorName: principal.Name,
			Details: map[string]any{
				"quote_id":    quote.ID.String(),
				"lead_id":     quote.LeadID.String(),
				"contract_id": contract.ID.String(),
				"work_orders": len(workOrders),
			},
			CreatedAt: acceptedAt,
		},
	}
	if err := s.workflow.SaveAcceptance(ctx, rec); err != nil {
		return nil, err
	}

	return &AcceptQuoteResult{Contract: contract, WorkOrders: workOrders}, nil
}

func (s *QuoteService) buildWorkOrder(
	ctx context.Context,
	quote *model.Quote,
	lead *model.Lead,
	contractID uuid.UUID,
	index int,
	item model.QuoteLineItem,
	startDate time.Time,
	now time.Time,
) (*model.WorkOrder, error) {
	var tasks []model.Task
	startTime := s.cfg.WorkOrders.DefaultStartTime

	if item.ScopeTemplateID != nil {
		template, err := s.templates.Get(ctx, *item.ScopeTemplateID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
		if template != nil {
			tasks = make([]model.Task, 0, len(template.Tasks))
			for _, task := range template.Tasks {
				tasks = append(tasks, model.Task{
					ID:       task.ID,
					Name:     task.Name,
					Required: task.Required,
				})
			}
			if template.StartTime != "" {
				startTime = template.StartTime
			}
		}
	}

	zip := item.Zip
	if zip == "" {
		zip = lead.Zip
	}
	serviceStart := startDate

	return &model.WorkOrder{
		ID:          uuid.NewSHA1(quote.ID, []byte(fmt.Sprintf("work-order:%d", index))),
		LeadID:      quote.LeadID,
		ContractID:  contractID,
		Location:    item.Location,
		Zip:         zip,
		ServiceType: item.ServiceType,
		Tasks:       tasks,
		Schedule: model.Schedule{
			Frequency: item.Frequency,
			Days:      model.WeekdayMaskMonFri(),
			StartTime: startTime,
		},
		ClientRate:       item.MonthlyRate,
		ServiceStartDate: &serviceStart,
		Status:           model.WorkOrderStatusPendingAssignment,
		QRCodeSecret:     newSecret(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type RejectQuoteInput struct {
	QuoteID   uuid.UUID
	Reason    string
	Principal model.Principal
}

// Reject closes the quote and marks the lead lost. No downstream documents
// are created.
func (s *QuoteService) Reject(ctx context.Context, input RejectQuoteInput) error {
	principal := input.Principal
	if !(principal.IsAdmin() || principal.IsSales() || principal.IsClient()) {
		return ErrPermissionDenied
	}

	quote, err := s.Get(ctx, input.QuoteID)
	if err != nil {
		return err
	}
	if !quote.Open() {
		return ErrQuoteNotOpen
	}

	rec := model.QuoteRejection{
		QuoteID: quote.ID,
		LeadID:  quote.LeadID,
		Reason:  input.Reason,
		Activity: model.ActivityLog{
			ID:        uuid.New(),
			Action:    "quote.rejected",
			ActorID:   principal.UserID,
			ActorName: principal.Name,
			Details: map[string]any{
				"quote_id": quote.ID.String(),
				"lead_id":  quote.LeadID.String(),
				"reason":   input.Reason,
			},
			CreatedAt: time.Now().UTC(),
		},
	}
	return s.workflow.SaveRejection(ctx, rec)
}

// RespondByToken handles the public review endpoint: the one mutation path
// proxied through server-side logic instead of an authenticated client.
func (s *QuoteService) RespondByToken(ctx context.Context, token, action, note string) (*AcceptQuoteResult, error) {
	quote, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	client := model.Principal{Role: model.RoleClient, Name: "client"}
	switch action {
	case "accept":
		return s.Accept(ctx, AcceptQuoteInput{QuoteID: quote.ID, Principal: client})
	case "request_changes":
		if !quote.Open() {
			return nil, ErrQuoteNotOpen
		}
		if err := s.quotes.SetStatus(ctx, quote.ID, model.QuoteStatusChangesRequested, nil); err != nil {
			return nil, err
		}
		entry := &model.ActivityLog{
			ID:        uuid.New(),
			Action:    "quote.changes_requested",
			ActorName: "client",
			Details: map[string]any{
				"quote_id": quote.ID.String(),
				"lead_id":  quote.LeadID.String(),
				"note":     note,
			},
			CreatedAt: time.Now().UTC(),
		}
		return nil, s.activity.Append(ctx, entry)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
