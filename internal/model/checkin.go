package model

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn is one on-site audit visit against a work order. Immutable once
// created; the task list is a snapshot of what the auditor recorded.
type CheckIn struct {
	ID             uuid.UUID `json:"id"`
	WorkOrderID    uuid.UUID `json:"work_order_id"`
	QRValid        bool      `json:"qr_valid"`
	Tasks          []Task    `json:"tasks"`
	CompletionRate int       `json:"completion_rate"`
	Score          int       `json:"score"`
	Notes          string    `json:"notes"`
	ActorID        uuid.UUID `json:"actor_id"`
	Date           time.Time `json:"date"`
}
