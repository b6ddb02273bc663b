package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightserv/facilityops/internal/model"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

type quoteRow struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	Version          int
	LineItems        datatypes.JSON
	TotalMonthlyRate float64
	TenureMonths     int
	PaymentTerms     string
	ExitClause       string
	ReviewToken      string
	Status           model.QuoteStatus
	AcceptedAt       *time.Time
	CreatedAt        time.Time
}

func (row *quoteRow) toModel() (*model.Quote, error) {
	quote := &model.Quote{
		ID:               row.ID,
		LeadID:           row.LeadID,
		Version:          row.Version,
		TotalMonthlyRate: row.TotalMonthlyRate,
		TenureMonths:     row.TenureMonths,
		PaymentTerms:     row.PaymentTerms,
		ExitClause:       row.ExitClause,
		ReviewToken:      row.ReviewToken,
		Status:           row.Status,
		AcceptedAt:       row.AcceptedAt,
		CreatedAt:        row.CreatedAt,
	}
	if err := fromJSONB(row.LineItems, &quote.LineItems); err != nil {
		return nil, err
	}
	return quote, nil
}

const quoteColumns = `
	id, lead_id, version, line_items, total_monthly_rate, tenure_months,
	payment_terms, exit_clause, review_token, status, accepted_at, created_at`

func (r *QuoteRepository) Create(ctx context.Context, quote *model.Quote) error {
	items, err := toJSONB(quote.LineItems)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO quotes (
			id, lead_id, version, line_items, total_monthly_rate, tenure_months,
			payment_terms, exit_clause, review_token, status, accepted_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		quote.ID, quote.LeadID, quote.Version, items, quote.TotalMonthlyRate,
		quote.TenureMonths, quote.PaymentTerms, quote.ExitClause,
		quote.ReviewToken, quote.Status, quote.AcceptedAt, quote.CreatedAt,
	).Error
}

func (r *QuoteRepository) Get(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var row quoteRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+quoteColumns+` FROM quotes WHERE id = ? LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *QuoteRepository) GetByToken(ctx context.Context, token string) (*model.Quote, error) {
	var row quoteRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+quoteColumns+` FROM quotes WHERE review_token = ? LIMIT 1
	`, token).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}

func (r *QuoteRepository) ListForLead(ctx context.Context, leadID uuid.UUID) ([]model.Quote, error) {
	var rows []quoteRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+quoteColumns+` FROM quotes WHERE lead_id = ? ORDER BY version DESC
	`, leadID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	quotes := make([]model.Quote, 0, len(rows))
	for i := range rows {
		quote, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *quote)
	}
	return quotes, nil
}

// NextVersion returns the version the next quote for this lead should carry.
func (r *QuoteRepository) NextVersion(ctx context.Context, leadID uuid.UUID) (int, error) {
	var version int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(version), 0) + 1 FROM quotes WHERE lead_id = ?
	`, leadID).Scan(&version).Error
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (r *QuoteRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.QuoteStatus, acceptedAt *time.Time) error {
	if acceptedAt != nil {
		return r.db.WithContext(ctx).Exec(`
			UPDATE quotes SET status = ?, accepted_at = ? WHERE id = ?
		`, status, *acceptedAt, id).Error
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE quotes SET status = ? WHERE id = ?
	`, status, id).Error
}
