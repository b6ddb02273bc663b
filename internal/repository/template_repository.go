package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

type templateRow struct {
	ID          uuid.UUID
	Name        string
	ServiceType string
	Tasks       datatypes.JSON
	StartTime   string
	CreatedAt   time.Time
}

func (row *templateRow) toModel() (*model.ScopeTemplate, error) {
	template := &model.ScopeTemplate{
		ID:          row.ID,
		Name:        row.Name,
		ServiceType: row.ServiceType,
		StartTime:   row.StartTime,
		CreatedAt:   row.CreatedAt,
	}
	if err := fromJSONB(row.Tasks, &template.Tasks); err != nil {
		return nil, err
	}
	return template, nil
}

func (r *TemplateRepository) Get(ctx context.Context, id uuid.UUID) (*model.ScopeTemplate, error) {
	var row templateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, service_type, tasks, start_time, created_at
		FROM scope_templates
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

// ForServiceType resolves a template by its service-type key.
func (r *TemplateRepository) ForServiceType(ctx context.Context, serviceType string) (*model.ScopeTemplate, error) {
	var row templateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, service_type, tasks, start_time, created_at
		FROM scope_templates
		WHERE service_type = ?
		LIMIT 1
	`, serviceType).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *TemplateRepository) Create(ctx context.Context, template *model.ScopeTemplate) error {
	tasks, err := toJSONB(template.Tasks)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO scope_templates (id, name, service_type, tasks, start_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, template.ID, template.Name, template.ServiceType, tasks, template.StartTime, template.CreatedAt).Error
}
