package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

// LeadService owns the sales pipeline records. Leads are never hard-deleted;
// losing a deal is a status transition.
type LeadService struct {
	leads    LeadStore
	activity ActivityStore
}

func NewLeadService(leads LeadStore, activity ActivityStore) *LeadService {
	return &LeadService{leads: leads, activity: activity}
}

type CreateLeadInput struct {
	BusinessName string
	ContactName  string
	Email        string
	Phone        string
	Address      string
	Zip          string
	FacilityType string
	Source       string
	Notes        string
	AuditSlots   []model.AuditSlot
	Principal    model.Principal
}

func (s *LeadService) Create(ctx context.Context, input CreateLeadInput) (*model.Lead, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsSales()) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.BusinessName) == "" {
		return nil, fmt.Errorf("%w: business_name is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	lead := &model.Lead{
		ID:           uuid.New(),
		BusinessName: strings.TrimSpace(input.BusinessName),
		ContactName:  input.ContactName,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		Zip:          input.Zip,
		FacilityType: input.FacilityType,
		Status:       model.LeadStatusNew,
		Source:       input.Source,
		Notes:        input.Notes,
		AuditSlots:   input.AuditSlots,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// CreateFromFunnel records a lead captured by the public marketing funnel.
// No principal is required; attribution comes from the funnel itself.
func (s *LeadService) CreateFromFunnel(ctx context.Context, input CreateLeadInput) (*model.Lead, error) {
	if strings.TrimSpace(input.BusinessName) == "" {
		return nil, fmt.Errorf("%w: business_name is required", ErrInvalidInput)
	}
	if input.Source == "" {
		input.Source = "funnel"
	}
	input.Principal = model.Principal{Role: model.RoleAdmin}
	return s.Create(ctx, input)
}

func (s *LeadService) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) List(ctx context.Context, status *model.LeadStatus) ([]model.Lead, error) {
	return s.leads.List(ctx, status)
}

type UpdateLeadStatusInput struct {
	LeadID    uuid.UUID
	Status    model.LeadStatus
	Principal model.Principal
}

func (s *LeadService) UpdateStatus(ctx context.Context, input UpdateLeadStatusInput) error {
	if !(input.Principal.IsAdmin() || input.Principal.IsSales()) {
		return ErrPermissionDenied
	}

	lead, err := s.Get(ctx, input.LeadID)
	if err != nil {
		return err
	}
	if !lead.Status.CanTransition(input.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, lead.Status, input.Status)
	}
	return s.leads.UpdateStatus(ctx, input.LeadID, input.Status, nil)
}

func (s *LeadService) Update(ctx context.Context, lead *model.Lead, principal model.Principal) error {
	if !(principal.IsAdmin() || principal.IsSales()) {
		return ErrPermissionDenied
	}
	if _, err := s.Get(ctx, lead.ID); err != nil {
		return err
	}
	return s.leads.Update(ctx, lead)
}
