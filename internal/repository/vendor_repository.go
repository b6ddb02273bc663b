package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO vendors (id, name, contact_name, email, phone, service_area, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		vendor.ID, vendor.Name, vendor.ContactName, vendor.Email,
		vendor.Phone, vendor.ServiceArea, vendor.Status, vendor.CreatedAt,
	).Error
}

func (r *VendorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, contact_name, email, phone, service_area, status, created_at
		FROM vendors
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&vendor).Error
	if err != nil {
		return nil, err
	}
	if vendor.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &vendor, nil
}

func (r *VendorRepository) List(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, contact_name, email, phone, service_area, status, created_at
		FROM vendors
		ORDER BY name ASC
	`).Scan(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}
