// Package tax resolves sales-tax rates for invoice line items from the
// service location's ZIP code.
package tax

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Table answers ZIP lookups from an in-memory snapshot of the tax_rates
// table, falling back to the configured default when a ZIP is unknown.
type Table struct {
	rates       map[string]float64
	defaultRate float64
}

func NewTable(rates map[string]float64, defaultRate float64) *Table {
	if rates == nil {
		rates = map[string]float64{}
	}
	return &Table{rates: rates, defaultRate: defaultRate}
}

// RateForZip returns the tax rate for a ZIP code. Unknown and empty ZIPs
// get the default rate.
func (t *Table) RateForZip(ctx context.Context, zip string) (float64, error) {
	zip = strings.TrimSpace(zip)
	if rate, ok := t.rates[zip]; ok {
		return rate, nil
	}
	return t.defaultRate, nil
}

// Load reads the full tax_rates table into a Table.
func Load(ctx context.Context, db *gorm.DB, defaultRate float64) (*Table, error) {
	var rows []struct {
		Zip  string
		Rate float64
	}
	if err := db.WithContext(ctx).Raw(`SELECT zip, rate FROM tax_rates`).Scan(&rows).Error; err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(rows))
	for _, row := range rows {
		rates[row.Zip] = row.Rate
	}
	return NewTable(rates, defaultRate), nil
}
