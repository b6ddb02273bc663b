package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

type workOrderRow struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	ContractID       uuid.UUID
	Location         string
	Zip              string
	ServiceType      string
	Tasks            datatypes.JSON
	Schedule         datatypes.JSON
	VendorHistory    datatypes.JSON
	ClientRate       float64
	ServiceStartDate *time.Time
	Status           model.WorkOrderStatus
	QRCodeSecret     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (row *workOrderRow) toModel() (*model.WorkOrder, error) {
	order := &model.WorkOrder{
		ID:               row.ID,
		LeadID:           row.LeadID,
		ContractID:       row.ContractID,
		Location:         row.Location,
		Zip:              row.Zip,
		ServiceType:      row.ServiceType,
		ClientRate:       row.ClientRate,
		ServiceStartDate: row.ServiceStartDate,
		Status:           row.Status,
		QRCodeSecret:     row.QRCodeSecret,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if err := fromJSONB(row.Tasks, &order.Tasks); err != nil {
		return nil, err
	}
	if err := fromJSONB(row.Schedule, &order.Schedule); err != nil {
		return nil, err
	}
	if err := fromJSONB(row.VendorHistory, &order.VendorHistory); err != nil {
		return nil, err
	}
	return order, nil
}

const workOrderColumns = `
	id, lead_id, contract_id, location, zip, service_type, tasks, schedule,
	vendor_history, client_rate, service_start_date, status, qr_code_secret,
	created_at, updated_at`

func (r *WorkOrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var row workOrderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+` FROM work_orders WHERE id = ? LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *WorkOrderRepository) ListForLead(ctx context.Context, leadID uuid.UUID) ([]model.WorkOrder, error) {
	var rows []workOrderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+` FROM work_orders
		WHERE lead_id = ?
		ORDER BY created_at ASC
	`, leadID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rowsToWorkOrders(rows)
}

// ListBillable returns the lead's active work orders eligible for a billing
// period ending at periodEnd. Orders without a service start date predate
// that column and are always eligible.
func (r *WorkOrderRepository) ListBillable(ctx context.Context, leadID uuid.UUID, periodEnd time.Time) ([]model.WorkOrder, error) {
	var rows []workOrderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+` FROM work_orders
		WHERE lead_id = ?
			AND status = ?
			AND (service_start_date IS NULL OR service_start_date <= ?)
		ORDER BY created_at ASC
	`, leadID, model.WorkOrderStatusActive, periodEnd).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rowsToWorkOrders(rows)
}

// Update writes the mutable fields: status, schedule, tasks, vendor history.
func (r *WorkOrderRepository) Update(ctx context.Context, order *model.WorkOrder) error {
	tasks, err := toJSONB(order.Tasks)
	if err != nil {
		return err
	}
	schedule, err := toJSONB(order.Schedule)
	if err != nil {
		return err
	}
	history, err := toJSONB(order.VendorHistory)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE work_orders SET
			tasks = ?, schedule = ?, vendor_history = ?, status = ?,
			service_start_date = ?, updated_at = NOW()
		WHERE id = ?
	`, tasks, schedule, history, order.Status, order.ServiceStartDate, order.ID).Error
}

// SaveCheckIn records the audit and syncs the work order's task completion
// state in one transaction.
func (r *WorkOrderRepository) SaveCheckIn(ctx context.Context, checkIn *model.CheckIn, tasks []model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := toJSONB(checkIn.Tasks)
		if err != nil {
			return err
		}
		if err := tx.Exec(`
			INSERT INTO check_ins (
				id, work_order_id, qr_valid, tasks, completion_rate, score,
				notes, actor_id, date
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			checkIn.ID, checkIn.WorkOrderID, checkIn.QRValid, snapshot,
			checkIn.CompletionRate, checkIn.Score, checkIn.Notes,
			checkIn.ActorID, checkIn.Date,
		).Error; err != nil {
			return err
		}

		updated, err := toJSONB(tasks)
		if err != nil {
			return err
		}
		return tx.Exec(`
			UPDATE work_orders SET tasks = ?, updated_at = NOW() WHERE id = ?
		`, updated, checkIn.WorkOrderID).Error
	})
}

func (r *WorkOrderRepository) ListCheckIns(ctx context.Context, workOrderID uuid.UUID) ([]model.CheckIn, error) {
	var rows []struct {
		ID             uuid.UUID
		WorkOrderID    uuid.UUID
		QRValid        bool
		Tasks          datatypes.JSON
		CompletionRate int
		Score          int
		Notes          string
		ActorID        uuid.UUID
		Date           time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, work_order_id, qr_valid, tasks, completion_rate, score,
			notes, actor_id, date
		FROM check_ins
		WHERE work_order_id = ?
		ORDER BY date DESC
	`, workOrderID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	checkIns := make([]model.CheckIn, 0, len(rows))
	for _, row := range rows {
		checkIn := model.CheckIn{
			ID:             row.ID,
			WorkOrderID:    row.WorkOrderID,
			QRValid:        row.QRValid,
			CompletionRate: row.CompletionRate,
			Score:          row.Score,
			Notes:          row.Notes,
			ActorID:        row.ActorID,
			Date:           row.Date,
		}
		if err := fromJSONB(row.Tasks, &checkIn.Tasks); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, checkIn)
	}
	return checkIns, nil
}

func rowsToWorkOrders(rows []workOrderRow) ([]model.WorkOrder, error) {
	orders := make([]model.WorkOrder, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}
