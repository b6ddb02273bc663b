package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

// WorkOrderService tracks the fulfillment lifecycle of a single service
// line: vendor assignment, schedule edits, status transitions, and on-site
// audits.
type WorkOrderService struct {
	orders   WorkOrderStore
	vendors  VendorStore
	activity ActivityStore
}

func NewWorkOrderService(orders WorkOrderStore, vendors VendorStore, activity ActivityStore) *WorkOrderService {
	return &WorkOrderService{orders: orders, vendors: vendors, activity: activity}
}

func (s *WorkOrderService) Get(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *WorkOrderService) ListForLead(ctx context.Context, leadID uuid.UUID) ([]model.WorkOrder, error) {
	return s.orders.ListForLead(ctx, leadID)
}

func (s *WorkOrderService) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	return s.vendors.List(ctx)
}

type CreateVendorInput struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	ServiceArea string
	Principal   model.Principal
}

func (s *WorkOrderService) CreateVendor(ctx context.Context, input CreateVendorInput) (*model.Vendor, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsFSM()) {
		return nil, ErrPermissionDenied
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: vendor name is required", ErrInvalidInput)
	}

	vendor := &model.Vendor{
		ID:          uuid.New(),
		Name:        name,
		ContactName: strings.TrimSpace(input.ContactName),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		ServiceArea: strings.TrimSpace(input.ServiceArea),
		Status:      model.VendorStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		return nil, fmt.Errorf("create vendor: %w", err)
	}
	return vendor, nil
}

type AssignVendorInput struct {
	WorkOrderID uuid.UUID
	VendorID    uuid.UUID
	VendorRate  float64
	Principal   model.Principal
}

// AssignVendor appends a vendor-history entry; the latest entry is the
// current vendor. A pending work order becomes active on first assignment.
func (s *WorkOrderService) AssignVendor(ctx context.Context, input AssignVendorInput) (*model.WorkOrder, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsFSM()) {
		return nil, ErrPermissionDenied
	}
	if input.VendorRate <= 0 {
		return nil, fmt.Errorf("%w: vendor_rate must be positive", ErrInvalidInput)
	}

	order, err := s.Get(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: work order is %s", ErrInvalidState, order.Status)
	}

	vendor, err := s.vendors.Get(ctx, input.VendorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	order.VendorHistory = append(order.VendorHistory, model.VendorAssignment{
		VendorID:   vendor.ID,
		VendorRate: input.VendorRate,
		AssignedBy: input.Principal.UserID,
		AssignedAt: time.Now().UTC(),
	})
	if order.Status == model.WorkOrderStatusPendingAssignment {
		order.Status = model.WorkOrderStatusActive
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type TransitionInput struct {
	WorkOrderID uuid.UUID
	Target      model.WorkOrderStatus
	Principal   model.Principal
}

func (s *WorkOrderService) Transition(ctx context.Context, input TransitionInput) (*model.WorkOrder, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsFSM()) {
		return nil, ErrPermissionDenied
	}

	order, err := s.Get(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(input.Target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, order.Status, input.Target)
	}
	if input.Target == model.WorkOrderStatusActive && order.CurrentVendor() == nil {
		return nil, fmt.Errorf("%w: cannot activate without a vendor", ErrInvalidState)
	}

	order.Status = input.Target
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type UpdateScheduleInput struct {
	WorkOrderID uuid.UUID
	Schedule    model.Schedule
	Principal   model.Principal
}

func (s *WorkOrderService) UpdateSchedule(ctx context.Context, input UpdateScheduleInput) (*model.WorkOrder, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsFSM()) {
		return nil, ErrPermissionDenied
	}

	order, err := s.Get(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: work order is %s", ErrInvalidState, order.Status)
	}

	order.Schedule = input.Schedule
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type CheckInInput struct {
	WorkOrderID      uuid.UUID
	ScannedCode      string
	CompletedTaskIDs []string
	Score            int
	Notes            string
	Principal        model.Principal
}

// CheckIn records an on-site audit. QR validation is informational: a scan
// that does not match the work order's secret is recorded as invalid but
// does not block submission.
func (s *WorkOrderService) CheckIn(ctx context.Context, input CheckInInput) (*model.CheckIn, error) {
	if !(input.Principal.IsAdmin() || input.Principal.IsFSM()) {
		return nil, ErrPermissionDenied
	}
	if input.Score < 1 || input.Score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrInvalidInput)
	}

	order, err := s.Get(ctx, input.WorkOrderID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(input.CompletedTaskIDs))
	for _, id := range input.CompletedTaskIDs {
		completed[id] = true
	}

	tasks := make([]model.Task, len(order.Tasks))
	completedCount := 0
	for i, task := range order.Tasks {
		task.Completed = completed[task.ID]
		if task.Completed {
			completedCount++
		}
		tasks[i] = task
	}

	checkIn := &model.CheckIn{
		ID:             uuid.New(),
		WorkOrderID:    order.ID,
		QRValid:        QRMatches(input.ScannedCode, order.QRCodeSecret),
		Tasks:          tasks,
		CompletionRate: CompletionRate(completedCount, len(order.Tasks)),
		Score:          input.Score,
		Notes:          input.Notes,
		ActorID:        input.Principal.UserID,
		Date:           time.Now().UTC(),
	}
	if err := s.orders.SaveCheckIn(ctx, checkIn, tasks); err != nil {
		return nil, err
	}
	return checkIn, nil
}

func (s *WorkOrderService) ListCheckIns(ctx context.Context, workOrderID uuid.UUID) ([]model.CheckIn, error) {
	return s.orders.ListCheckIns(ctx, workOrderID)
}

// QRMatches reports whether a scanned code is the work order's secret.
// Exact string equality, nothing fuzzier.
func QRMatches(scanned, secret string) bool {
	return scanned == secret
}

// CompletionRate is the rounded percentage of completed tasks. An empty
// task list counts as fully complete.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
