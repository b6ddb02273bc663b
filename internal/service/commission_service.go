package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

// LedgerExcelGenerator renders the commission ledger workbook.
type LedgerExcelGenerator interface {
	GenerateLedger(ledger model.CommissionLedger) ([]byte, error)
}

type CommissionService struct {
	commissions CommissionStore
	excel       LedgerExcelGenerator
}

func NewCommissionService(commissions CommissionStore, excel LedgerExcelGenerator) *CommissionService {
	return &CommissionService{commissions: commissions, excel: excel}
}

type CreateCommissionInput struct {
	StaffID      uuid.UUID
	QuoteID      uuid.UUID
	LeadID       uuid.UUID
	Type         model.CommissionType
	MRR          float64
	Rate         float64
	PayoutMonths int
	Principal    model.Principal
}

func (s *CommissionService) Create(ctx context.Context, input CreateCommissionInput) (*model.Commission, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsAccounting()) {
		return nil, ErrPermissionDenied
	}
	if input.StaffID == uuid.Nil {
		return nil, fmt.Errorf("%w: staff_id is required", ErrInvalidInput)
	}
	if input.MRR <= 0 {
		return nil, fmt.Errorf("%w: mrr must be positive", ErrInvalidInput)
	}
	if input.Rate <= 0 || input.Rate >= 1 {
		return nil, fmt.Errorf("%w: rate must be between 0 and 1", ErrInvalidInput)
	}
	months := input.PayoutMonths
	if months == 0 {
		months = 12
	}
	if months < 1 || months > 36 {
		return nil, fmt.Errorf("%w: payout_months must be between 1 and 36", ErrInvalidInput)
	}
	commissionType := input.Type
	if commissionType == "" {
		commissionType = model.CommissionTypeNewSale
	}

	now := time.Now().UTC()
	acv := round2(input.MRR * 12)
	total := round2(acv * input.Rate)

	commission := &model.Commission{
		ID:              uuid.New(),
		StaffID:         input.StaffID,
		QuoteID:         input.QuoteID,
		LeadID:          input.LeadID,
		Type:            commissionType,
		MRR:             input.MRR,
		ACV:             acv,
		Rate:            input.Rate,
		TotalCommission: total,
		Status:          model.CommissionStatusActive,
		PayoutSchedule:  BuildPayoutSchedule(total, months, now),
		CreatedAt:       now,
	}
	activity := &model.ActivityLog{
		ID:        uuid.New(),
		Action:    "commission.created",
		ActorID:   input.Principal.UserID,
		ActorName: input.Principal.Name,
		Details: map[string]any{
			"commission_id": commission.ID.String(),
			"staff_id":      commission.StaffID.String(),
			"total":         commission.TotalCommission,
			"months":        months,
		},
		CreatedAt: now,
	}
	if err := s.commissions.Create(ctx, commission, activity); err != nil {
		return nil, err
	}
	return commission, nil
}

// BuildPayoutSchedule splits total over months in whole cents. Every entry
// gets the floor share and the leftover cents land one per entry from the
// front, so the schedule sums exactly to total and no entry is negative.
func BuildPayoutSchedule(total float64, months int, start time.Time) []model.PayoutEntry {
	totalCents := int64(math.Round(total * 100))
	baseCents := totalCents / int64(months)
	extraCents := totalCents % int64(months)
	percentage := round2(100 / float64(months))

	schedule := make([]model.PayoutEntry, months)
	for i := 0; i < months; i++ {
		cents := baseCents
		if int64(i) < extraCents {
			cents++
		}
		schedule[i] = model.PayoutEntry{
			MonthIndex:  i + 1,
			Amount:      float64(cents) / 100,
			Percentage:  percentage,
			Status:      model.PayoutStatusPending,
			ScheduledAt: start.AddDate(0, i+1, 0),
		}
	}
	return schedule
}

func (s *CommissionService) Get(ctx context.Context, id uuid.UUID) (*model.Commission, error) {
	commission, err := s.commissions.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return commission, nil
}

// Summary aggregates payout schedules into a ledger, for one staff member
// or globally when staffID is nil.
func (s *CommissionService) Summary(ctx context.Context, staffID *uuid.UUID) (*model.CommissionLedger, error) {
	commissions, err := s.commissions.List(ctx, staffID)
	if err != nil {
		return nil, err
	}

	ledger := &model.CommissionLedger{StaffID: staffID, Rows: make([]model.CommissionRow, 0, len(commissions))}
	for _, commission := range commissions {
		row := model.CommissionRow{Commission: commission}
		for _, entry := range commission.PayoutSchedule {
			switch entry.Status {
			case model.PayoutStatusPaid:
				row.Earned = round2(row.Earned + entry.Amount)
			case model.PayoutStatusCancelled:
				row.Cancelled = round2(row.Cancelled + entry.Amount)
			default:
				row.Pending = round2(row.Pending + entry.Amount)
			}
		}
		ledger.Rows = append(ledger.Rows, row)
		ledger.Earned = round2(ledger.Earned + row.Earned)
		ledger.Pending = round2(ledger.Pending + row.Pending)
		ledger.Cancelled = round2(ledger.Cancelled + row.Cancelled)
	}
	return ledger, nil
}

type ResolvePayoutInput struct {
	CommissionID uuid.UUID
	MonthIndex   int
	Principal    model.Principal
}

func (s *CommissionService) MarkPayoutPaid(ctx context.Context, input ResolvePayoutInput) error {
	return s.resolvePayout(ctx, input, model.PayoutStatusPaid)
}

func (s *CommissionService) MarkPayoutCancelled(ctx context.Context, input ResolvePayoutInput) error {
	return s.resolvePayout(ctx, input, model.PayoutStatusCancelled)
}

func (s *CommissionService) resolvePayout(ctx context.Context, input ResolvePayoutInput, target model.PayoutStatus) error {
	if !(input.Principal.IsAdmin() || input.Principal.IsAccounting()) {
		return ErrPermissionDenied
	}
	commission, err := s.Get(ctx, input.CommissionID)
	if err != nil {
		return err
	}

	found := false
	pendingLeft := 0
	for i := range commission.PayoutSchedule {
		entry := &commission.PayoutSchedule[i]
		if entry.MonthIndex == input.MonthIndex {
			if entry.Status != model.PayoutStatusPending {
				return fmt.Errorf("%w: payout month %d is already %s", ErrInvalidState, input.MonthIndex, entry.Status)
			}
			entry.Status = target
			if target == model.PayoutStatusPaid {
				now := time.Now().UTC()
				entry.PaidAt = &now
			}
			found = true
		}
		if entry.Status == model.PayoutStatusPending {
			pendingLeft++
		}
	}
	if !found {
		return fmt.Errorf("%w: no payout month %d", ErrNotFound, input.MonthIndex)
	}

	status := commission.Status
	if pendingLeft == 0 {
		status = model.CommissionStatusCompleted
	}
	activity := &model.ActivityLog{
		ID:        uuid.New(),
		Action:    "commission.payout." + string(target),
		ActorID:   input.Principal.UserID,
		ActorName: input.Principal.Name,
		Details: map[string]any{
			"commission_id": commission.ID.String(),
			"month_index":   input.MonthIndex,
		},
		CreatedAt: time.Now().UTC(),
	}
	return s.commissions.UpdateSchedule(ctx, commission.ID, commission.PayoutSchedule, status, activity)
}

func (s *CommissionService) ExportLedger(ctx context.Context, staffID *uuid.UUID, principal model.Principal) (*ExportResult, error) {
	if !(principal.IsAdmin() || principal.IsAccounting()) {
		return nil, ErrPermissionDenied
	}
	ledger, err := s.Summary(ctx, staffID)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.GenerateLedger(*ledger)
	if err != nil {
		return nil, err
	}
	name := "commission-ledger.xlsx"
	if staffID != nil {
		name = fmt.Sprintf("commission-ledger-%s.xlsx", staffID)
	}
	return &ExportResult{FileName: name, Content: content}, nil
}
