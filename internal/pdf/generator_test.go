package pdf

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightserv/facilityops/internal/model"
)

func TestGenerator_Generate(t *testing.T) {
	generator, err := NewGenerator()
	require.NoError(t, err)

	invoice := model.Invoice{
		ID:           uuid.New(),
		BusinessName: "Hudson Dental Group",
		LineItems: []model.InvoiceLineItem{
			{Location: "Location A", ServiceType: "Janitorial", Amount: 500, TaxRate: 0.08, TaxAmount: 40},
			{Location: "Location B", ServiceType: "Floor Care", Amount: 300, TaxRate: 0.08, TaxAmount: 24},
		},
		Subtotal:    800,
		TotalTax:    64,
		TotalAmount: 864,
		PeriodStart: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2026, time.July, 25, 0, 0, 0, 0, time.UTC),
	}
	remittances := []model.VendorRemittance{
		{
			VendorName:    "Vendor X",
			TotalAmount:   200,
			TotalTax:      0,
			CertificateID: model.ResaleCertificate,
		},
	}

	content, err := generator.Generate(invoice, remittances)
	require.NoError(t, err)
	require.NotEmpty(t, content)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestGenerator_GenerateWithoutRemittances(t *testing.T) {
	generator, err := NewGenerator()
	require.NoError(t, err)

	content, err := generator.Generate(model.Invoice{BusinessName: "Solo Client"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, content)
}
