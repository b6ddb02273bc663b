package model

import (
	"time"

	"github.com/google/uuid"
)

type VendorStatus string

const (
	VendorStatusActive   VendorStatus = "ACTIVE"
	VendorStatusInactive VendorStatus = "INACTIVE"
)

type Vendor struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	ContactName string       `json:"contact_name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	ServiceArea string       `json:"service_area"`
	Status      VendorStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}
