package model

import (
	"time"

	"github.com/google/uuid"
)

type TemplateTask struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// ScopeTemplate is the task checklist for one service type. ServiceType is
// the lookup key used when a quote line item is created.
type ScopeTemplate struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	ServiceType string         `json:"service_type"`
	Tasks       []TemplateTask `json:"tasks"`
	StartTime   string         `json:"start_time"`
	CreatedAt   time.Time      `json:"created_at"`
}
