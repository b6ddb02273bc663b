package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

type commissionRow struct {
	ID              uuid.UUID
	StaffID         uuid.UUID
	QuoteID         uuid.UUID
	LeadID          uuid.UUID
	Type            model.CommissionType
	MRR             float64
	ACV             float64
	Rate            float64
	TotalCommission float64
	Status          model.CommissionStatus
	PayoutSchedule  datatypes.JSON
	CreatedAt       time.Time
}

func (row *commissionRow) toModel() (*model.Commission, error) {
	commission := &model.Commission{
		ID:              row.ID,
		StaffID:         row.StaffID,
		QuoteID:         row.QuoteID,
		LeadID:          row.LeadID,
		Type:            row.Type,
		MRR:             row.MRR,
		ACV:             row.ACV,
		Rate:            row.Rate,
		TotalCommission: row.TotalCommission,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
	}
	if err := fromJSONB(row.PayoutSchedule, &commission.PayoutSchedule); err != nil {
		return nil, err
	}
	return commission, nil
}

const commissionColumns = `
	id, staff_id, quote_id, lead_id, type, mrr, acv, rate, total_commission,
	status, payout_schedule, created_at`

// Create writes the commission and its activity entry together, so the
// audit trail cannot drift from the ledger.
func (r *CommissionRepository) Create(ctx context.Context, commission *model.Commission, activity *model.ActivityLog) error {
	schedule, err := toJSONB(commission.PayoutSchedule)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO commissions (
				id, staff_id, quote_id, lead_id, type, mrr, acv, rate,
				total_commission, status, payout_schedule, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			commission.ID, commission.StaffID, commission.QuoteID,
			commission.LeadID, commission.Type, commission.MRR, commission.ACV,
			commission.Rate, commission.TotalCommission, commission.Status,
			schedule, commission.CreatedAt,
		).Error; err != nil {
			return err
		}
		return insertActivity(tx, activity)
	})
}

func (r *CommissionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Commission, error) {
	var row commissionRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+commissionColumns+` FROM commissions WHERE id = ? LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *CommissionRepository) List(ctx context.Context, staffID *uuid.UUID) ([]model.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions ORDER BY created_at DESC`
	args := []interface{}{}
	if staffID != nil {
		query = `SELECT ` + commissionColumns + ` FROM commissions WHERE staff_id = ? ORDER BY created_at DESC`
		args = append(args, *staffID)
	}

	var rows []commissionRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	commissions := make([]model.Commission, 0, len(rows))
	for i := range rows {
		commission, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		commissions = append(commissions, *commission)
	}
	return commissions, nil
}

// UpdateSchedule rewrites the payout schedule, the rollup status, and the
// activity entry for the resolution in one transaction.
func (r *CommissionRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, schedule []model.PayoutEntry, status model.CommissionStatus, activity *model.ActivityLog) error {
	data, err := toJSONB(schedule)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			UPDATE commissions SET payout_schedule = ?, status = ? WHERE id = ?
		`, data, status, id).Error; err != nil {
			return err
		}
		return insertActivity(tx, activity)
	})
}
