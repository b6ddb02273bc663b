package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

// WorkflowRepository persists multi-document write sets produced by the
// quote-acceptance workflow in a single transaction, so a concurrent reader
// never observes a contract without its work orders.
type WorkflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) SaveAcceptance(ctx context.Context, rec model.QuoteAcceptance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract := rec.Contract
		if err := tx.Exec(`
			INSERT INTO contracts (
				id, lead_id, quote_id, business_name, total_monthly_rate,
				tenure_months, start_date, end_date, payment_terms, exit_clause,
				status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`,
			contract.ID, contract.LeadID, contract.QuoteID, contract.BusinessName,
			contract.TotalMonthlyRate, contract.TenureMonths, contract.StartDate,
			contract.EndDate, contract.PaymentTerms, contract.ExitClause,
			contract.Status, contract.CreatedAt,
		).Error; err != nil {
			return err
		}

		for i := range rec.WorkOrders {
			if err := insertWorkOrder(tx, &rec.WorkOrders[i]); err != nil {
				return err
			}
		}

		if err := tx.Exec(`
			UPDATE quotes SET status = ?, accepted_at = ? WHERE id = ?
		`, model.QuoteStatusAccepted, rec.AcceptedAt, rec.QuoteID).Error; err != nil {
			return err
		}

		if err := tx.Exec(`
			UPDATE leads SET status = ?, contract_id = ?, updated_at = NOW() WHERE id = ?
		`, model.LeadStatusWon, contract.ID, rec.LeadID).Error; err != nil {
			return err
		}

		return insertActivity(tx, &rec.Activity)
	})
}

func (r *WorkflowRepository) SaveRejection(ctx context.Context, rec model.QuoteRejection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			UPDATE quotes SET status = ? WHERE id = ?
		`, model.QuoteStatusRejected, rec.QuoteID).Error; err != nil {
			return err
		}

		if err := tx.Exec(`
			UPDATE leads SET status = ?, updated_at = NOW() WHERE id = ?
		`, model.LeadStatusLost, rec.LeadID).Error; err != nil {
			return err
		}

		return insertActivity(tx, &rec.Activity)
	})
}

func insertWorkOrder(tx *gorm.DB, order *model.WorkOrder) error {
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
	return tx.Exec(`
		INSERT INTO work_orders (
			id, lead_id, contract_id, location, zip, service_type, tasks,
			schedule, vendor_history, client_rate, service_start_date, status,
			qr_code_secret, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`,
		order.ID, order.LeadID, order.ContractID, order.Location, order.Zip,
		order.ServiceType, tasks, schedule, history, order.ClientRate,
		order.ServiceStartDate, order.Status, order.QRCodeSecret,
		order.CreatedAt, order.UpdatedAt,
	).Error
}
