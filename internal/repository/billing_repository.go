package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type BillingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

type invoiceRow struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	BusinessName  string
	LineItems     datatypes.JSON
	Subtotal      float64
	TotalTax      float64
	TotalAmount   float64
	VendorPayouts datatypes.JSON
	TotalPayouts  float64
	GrossMargin   float64
	PeriodStart   time.Time
	PeriodEnd     time.Time
	DueDate       time.Time
	PaymentToken  string
	Status        model.InvoiceStatus
	PaidAt        *time.Time
	CreatedAt     time.Time
}

func (row *invoiceRow) toModel() (*model.Invoice, error) {
	invoice := &model.Invoice{
		ID:           row.ID,
		LeadID:       row.LeadID,
		BusinessName: row.BusinessName,
		Subtotal:     row.Subtotal,
		TotalTax:     row.TotalTax,
		TotalAmount:  row.TotalAmount,
		TotalPayouts: row.TotalPayouts,
		GrossMargin:  row.GrossMargin,
		PeriodStart:  row.PeriodStart,
		PeriodEnd:    row.PeriodEnd,
		DueDate:      row.DueDate,
		PaymentToken: row.PaymentToken,
		Status:       row.Status,
		PaidAt:       row.PaidAt,
		CreatedAt:    row.CreatedAt,
	}
	if err := fromJSONB(row.LineItems, &invoice.LineItems); err != nil {
		return nil, err
	}
	if err := fromJSONB(row.VendorPayouts, &invoice.VendorPayouts); err != nil {
		return nil, err
	}
	return invoice, nil
}

const invoiceColumns = `
	id, lead_id, business_name, line_items, subtotal, total_tax, total_amount,
	vendor_payouts, total_payouts, gross_margin, period_start, period_end,
	due_date, payment_token, status, paid_at, created_at`

// SaveInvoiceRun persists the invoice, its remittances, the activity entry,
// and the mail notification in one transaction. Invoice and remittance ids
// are deterministic per billing period, so a re-run converges on the
// existing rows and only fills in remittances a partial run left behind;
// the activity entry and notification are written on first insert only.
func (r *BillingRepository) SaveInvoiceRun(ctx context.Context, run model.InvoiceRun) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice := run.Invoice
		items, err := toJSONB(invoice.LineItems)
		if err != nil {
			return err
		}
		payouts, err := toJSONB(invoice.VendorPayouts)
		if err != nil {
			return err
		}
		res := tx.Exec(`
			INSERT INTO invoices (
				id, lead_id, business_name, line_items, subtotal, total_tax,
				total_amount, vendor_payouts, total_payouts, gross_margin,
				period_start, period_end, due_date, payment_token, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`,
			invoice.ID, invoice.LeadID, invoice.BusinessName, items,
			invoice.Subtotal, invoice.TotalTax, invoice.TotalAmount, payouts,
			invoice.TotalPayouts, invoice.GrossMargin, invoice.PeriodStart,
			invoice.PeriodEnd, invoice.DueDate, invoice.PaymentToken,
			invoice.Status, invoice.CreatedAt,
		)
		if res.Error != nil {
			return res.Error
		}
		inserted := res.RowsAffected > 0

		for _, remittance := range run.Remittances {
			items, err := toJSONB(remittance.LineItems)
			if err != nil {
				return err
			}
			if err := tx.Exec(`
				INSERT INTO vendor_remittances (
					id, invoice_id, vendor_id, vendor_name, line_items,
					total_amount, total_tax, tax_exempt, certificate_id,
					period_start, period_end, due_date, status, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (invoice_id, vendor_id) DO NOTHING
			`,
				remittance.ID, remittance.InvoiceID, remittance.VendorID,
				remittance.VendorName, items, remittance.TotalAmount,
				remittance.TotalTax, remittance.TaxExempt,
				remittance.CertificateID, remittance.PeriodStart,
				remittance.PeriodEnd, remittance.DueDate, remittance.Status,
				remittance.CreatedAt,
			).Error; err != nil {
				return err
			}
		}

		if !inserted {
			return nil
		}
		if err := insertActivity(tx, &run.Activity); err != nil {
			return err
		}
		if run.Mail != nil {
			return insertMail(tx, run.Mail)
		}
		return nil
	})
}

func (r *BillingRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var row invoiceRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+invoiceColumns+` FROM invoices WHERE id = ? LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *BillingRepository) ListInvoices(ctx context.Context, leadID *uuid.UUID) ([]model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_at DESC`
	args := []interface{}{}
	if leadID != nil {
		query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE lead_id = ? ORDER BY created_at DESC`
		args = append(args, *leadID)
	}

	var rows []invoiceRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]model.Invoice, 0, len(rows))
	for i := range rows {
		invoice, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *invoice)
	}
	return invoices, nil
}

func (r *BillingRepository) MarkInvoicePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE invoices SET status = ?, paid_at = ? WHERE id = ?
	`, model.InvoiceStatusPaid, paidAt, id).Error
}

type remittanceRow struct {
	ID               uuid.UUID
	InvoiceID        uuid.UUID
	VendorID         uuid.UUID
	VendorName       string
	LineItems        datatypes.JSON
	TotalAmount      float64
	TotalTax         float64
	TaxExempt        bool
	CertificateID    string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	DueDate          time.Time
	Status           model.RemittanceStatus
	PaymentMethod    string
	PaymentReference string
	PaidAt           *time.Time
	CreatedAt        time.Time
}

func (row *remittanceRow) toModel() (*model.VendorRemittance, error) {
	remittance := &model.VendorRemittance{
		ID:               row.ID,
		InvoiceID:        row.InvoiceID,
		VendorID:         row.VendorID,
		VendorName:       row.VendorName,
		TotalAmount:      row.TotalAmount,
		TotalTax:         row.TotalTax,
		TaxExempt:        row.TaxExempt,
		CertificateID:    row.CertificateID,
		PeriodStart:      row.PeriodStart,
		PeriodEnd:        row.PeriodEnd,
		DueDate:          row.DueDate,
		Status:           row.Status,
		PaymentMethod:    row.PaymentMethod,
		PaymentReference: row.PaymentReference,
		PaidAt:           row.PaidAt,
		CreatedAt:        row.CreatedAt,
	}
	if err := fromJSONB(row.LineItems, &remittance.LineItems); err != nil {
		return nil, err
	}
	return remittance, nil
}

const remittanceColumns = `
	id, invoice_id, vendor_id, vendor_name, line_items, total_amount,
	total_tax, tax_exempt, certificate_id, period_start, period_end, due_date,
	status, payment_method, payment_reference, paid_at, created_at`

func (r *BillingRepository) ListRemittancesForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.VendorRemittance, error) {
	var rows []remittanceRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+remittanceColumns+` FROM vendor_remittances
		WHERE invoice_id = ?
		ORDER BY vendor_name ASC
	`, invoiceID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	remittances := make([]model.VendorRemittance, 0, len(rows))
	for i := range rows {
		remittance, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		remittances = append(remittances, *remittance)
	}
	return remittances, nil
}

func (r *BillingRepository) GetRemittance(ctx context.Context, id uuid.UUID) (*model.VendorRemittance, error) {
	var row remittanceRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+remittanceColumns+` FROM vendor_remittances WHERE id = ? LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *BillingRepository) MarkRemittancePaid(ctx context.Context, id uuid.UUID, method, reference string, paidAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE vendor_remittances
		SET status = ?, payment_method = ?, payment_reference = ?, paid_at = ?
		WHERE id = ?
	`, model.RemittanceStatusPaid, method, reference, paidAt, id).Error
}
