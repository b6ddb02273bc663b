package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

type leadRow struct {
	ID           uuid.UUID
	BusinessName string
	ContactName  string
	Email        string
	Phone        string
	Address      string
	Zip          string
	FacilityType string
	Status       model.LeadStatus
	Source       string
	Notes        string
	AuditSlots   datatypes.JSON
	ContractID   *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (row *leadRow) toModel() (*model.Lead, error) {
	lead := &model.Lead{
		ID:           row.ID,
		BusinessName: row.BusinessName,
		ContactName:  row.ContactName,
		Email:        row.Email,
		Phone:        row.Phone,
		Address:      row.Address,
		Zip:          row.Zip,
		FacilityType: row.FacilityType,
		Status:       row.Status,
		Source:       row.Source,
		Notes:        row.Notes,
		ContractID:   row.ContractID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if err := fromJSONB(row.AuditSlots, &lead.AuditSlots); err != nil {
		return nil, err
	}
	return lead, nil
}

const leadColumns = `
	id, business_name, contact_name, email, phone, address, zip,
	facility_type, status, source, notes, audit_slots, contract_id,
	created_at, updated_at`

func (r *LeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	slots, err := toJSONB(lead.AuditSlots)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO leads (
			id, business_name, contact_name, email, phone, address, zip,
			facility_type, status, source, notes, audit_slots, contract_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		lead.ID, lead.BusinessName, lead.ContactName, lead.Email, lead.Phone,
		lead.Address, lead.Zip, lead.FacilityType, lead.Status, lead.Source,
		lead.Notes, slots, lead.ContractID, lead.CreatedAt, lead.UpdatedAt,
	).Error
}

func (r *LeadRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	var row leadRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+leadColumns+` FROM leads WHERE id = ? LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *LeadRepository) List(ctx context.Context, status *model.LeadStatus) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`
	args := []interface{}{}
	if status != nil {
		query = `SELECT ` + leadColumns + ` FROM leads WHERE status = ? ORDER BY created_at DESC`
		args = append(args, *status)
	}

	var rows []leadRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(rows))
	for i := range rows {
		lead, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *model.Lead) error {
	slots, err := toJSONB(lead.AuditSlots)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE leads SET
			business_name = ?, contact_name = ?, email = ?, phone = ?,
			address = ?, zip = ?, facility_type = ?, source = ?, notes = ?,
			audit_slots = ?, updated_at = NOW()
		WHERE id = ?
	`,
		lead.BusinessName, lead.ContactName, lead.Email, lead.Phone,
		lead.Address, lead.Zip, lead.FacilityType, lead.Source, lead.Notes,
		slots, lead.ID,
	).Error
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus, contractID *uuid.UUID) error {
	if contractID != nil {
		return r.db.WithContext(ctx).Exec(`
			UPDATE leads SET status = ?, contract_id = ?, updated_at = NOW() WHERE id = ?
		`, status, *contractID, id).Error
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE leads SET status = ?, updated_at = NOW() WHERE id = ?
	`, status, id).Error
}
