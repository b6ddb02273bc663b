package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	return insertActivity(r.db.WithContext(ctx), entry)
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []struct {
		ID        uuid.UUID
		Action    string
		ActorID   uuid.UUID
		ActorName string
		Details   datatypes.JSON
		CreatedAt time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, action, actor_id, actor_name, details, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]model.ActivityLog, 0, len(rows))
	for _, row := range rows {
		entry := model.ActivityLog{
			ID:        row.ID,
			Action:    row.Action,
			ActorID:   row.ActorID,
			ActorName: row.ActorName,
			CreatedAt: row.CreatedAt,
		}
		if err := fromJSONB(row.Details, &entry.Details); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func insertActivity(tx *gorm.DB, entry *model.ActivityLog) error {
	details, err := toJSONB(entry.Details)
	if err != nil {
		return err
	}
	return tx.Exec(`
		INSERT INTO activity_logs (id, action, actor_id, actor_name, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Action, entry.ActorID, entry.ActorName, details, entry.CreatedAt).Error
}

type MailRepository struct {
	db *gorm.DB
}

func NewMailRepository(db *gorm.DB) *MailRepository {
	return &MailRepository{db: db}
}

// Enqueue writes a PENDING mail_queue row for the external dispatch worker.
func (r *MailRepository) Enqueue(ctx context.Context, message *model.MailMessage) error {
	return insertMail(r.db.WithContext(ctx), message)
}

func insertMail(tx *gorm.DB, message *model.MailMessage) error {
	data, err := toJSONB(message.TemplateData)
	if err != nil {
		return err
	}
	return tx.Exec(`
		INSERT INTO mail_queue (id, recipient, subject, template_type, template_data, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, message.ID, message.To, message.Subject, message.TemplateType, data, message.Status, message.CreatedAt).Error
}
