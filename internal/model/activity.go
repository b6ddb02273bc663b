package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an append-only audit trail entry. Details carries
// workflow-specific counts and identifiers.
type ActivityLog struct {
	ID        uuid.UUID
	Action    string
	ActorID   uuid.UUID
	ActorName string
	Details   map[string]any
	CreatedAt time.Time
}

type MailStatus string

const (
	MailStatusPending MailStatus = "PENDING"
	MailStatusSent    MailStatus = "SENT"
	MailStatusFailed  MailStatus = "FAILED"
)

// MailMessage is a mail_queue row. An external dispatch worker consumes
// PENDING rows; this service only ever writes them.
type MailMessage struct {
	ID           uuid.UUID
	To           string
	Subject      string
	TemplateType string
	TemplateData map[string]any
	Status       MailStatus
	CreatedAt    time.Time
}
