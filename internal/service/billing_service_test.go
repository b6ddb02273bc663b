package service

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightserv/facilityops/internal/excel"
	"github.com/brightserv/facilityops/internal/model"
	"github.com/brightserv/facilityops/internal/pdf"
)

type billingFixture struct {
	leads   *fakeLeadStore
	orders  *fakeWorkOrderStore
	vendors *fakeVendorStore
	billing *fakeBillingStore
	service *BillingService
}

func newBillingFixture(t *testing.T, rates map[string]float64) *billingFixture {
	t.Helper()
	leads := newFakeLeadStore()
	orders := newFakeWorkOrderStore()
	vendors := newFakeVendorStore()
	billing := newFakeBillingStore()
	taxes := &fakeTaxLookup{rates: rates, defaultRate: 0.08}

	pdfGenerator, err := pdf.NewGenerator()
	require.NoError(t, err)

	return &billingFixture{
		leads:   leads,
		orders:  orders,
		vendors: vendors,
		billing: billing,
		service: NewBillingService(leads, orders, vendors, billing, taxes, pdfGenerator, excel.NewGenerator(), testConfig()),
	}
}

var accountingPrincipal = model.Principal{UserID: uuid.New(), Name: "accounting", Role: model.RoleAccounting}

func seedBillableLead(t *testing.T, f *billingFixture) *model.Lead {
	t.Helper()
	lead := &model.Lead{
		ID:           uuid.New(),
		BusinessName: "Hudson Dental Group",
		Email:        "office@hudsondental.test",
		Status:       model.LeadStatusWon,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.leads.Create(context.Background(), lead))
	return lead
}

func activeOrder(leadID uuid.UUID, location string, clientRate float64, vendor *model.VendorAssignment) model.WorkOrder {
	order := model.WorkOrder{
		ID:          uuid.New(),
		LeadID:      leadID,
		Location:    location,
		Zip:         "12203",
		ServiceType: "Janitorial",
		ClientRate:  clientRate,
		Status:      model.WorkOrderStatusActive,
	}
	if vendor != nil {
		order.VendorHistory = []model.VendorAssignment{*vendor}
	}
	return order
}

func TestBillingService_GenerateInvoice(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	t.Run("computes totals, payouts and remittances", func(t *testing.T) {
		f := newBillingFixture(t, map[string]float64{"12203": 0.08})
		lead := seedBillableLead(t, f)

		vendorX := model.Vendor{ID: uuid.New(), Name: "Vendor X", Status: model.VendorStatusActive}
		f.vendors.vendors[vendorX.ID] = vendorX

		assigned := activeOrder(lead.ID, "Location A", 500, &model.VendorAssignment{VendorID: vendorX.ID, VendorRate: 200})
		unassigned := activeOrder(lead.ID, "Location B", 300, nil)
		f.orders.orders[assigned.ID] = assigned
		f.orders.orders[unassigned.ID] = unassigned

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID:      lead.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Principal:   accountingPrincipal,
		})
		require.NoError(t, err)

		invoice := result.Invoice
		assert.Equal(t, 800.0, invoice.Subtotal)
		assert.Equal(t, 64.0, invoice.TotalTax)
		assert.Equal(t, 864.0, invoice.TotalAmount)
		assert.Equal(t, 200.0, invoice.TotalPayouts)
		assert.Equal(t, 664.0, invoice.GrossMargin)
		assert.Equal(t, model.InvoiceStatusPending, invoice.Status)
		assert.NotEmpty(t, invoice.PaymentToken)
		assert.Len(t, invoice.LineItems, 2)

		require.Len(t, result.Remittances, 1)
		remittance := result.Remittances[0]
		assert.Equal(t, vendorX.ID, remittance.VendorID)
		assert.Equal(t, "Vendor X", remittance.VendorName)
		assert.Equal(t, 200.0, remittance.TotalAmount)
		assert.Equal(t, 0.0, remittance.TotalTax)
		assert.True(t, remittance.TaxExempt)
		assert.Equal(t, model.ResaleCertificate, remittance.CertificateID)
		require.Len(t, remittance.LineItems, 1)
		assert.Equal(t, 0.0, remittance.LineItems[0].TaxAmount)
		assert.True(t, remittance.LineItems[0].TaxExempt)

		// Client-side tax is unaffected by the vendor exemption.
		for _, item := range invoice.LineItems {
			assert.Equal(t, round2(item.Amount*0.08), item.TaxAmount)
		}

		require.Len(t, f.billing.activities, 1)
		assert.Equal(t, "invoice.generated", f.billing.activities[0].Action)
		require.Len(t, f.billing.mail, 1)
		assert.Equal(t, lead.Email, f.billing.mail[0].To)
	})

	t.Run("default due date is the configured day of the prior month", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		lead := seedBillableLead(t, f)
		order := activeOrder(lead.ID, "Location A", 500, nil)
		f.orders.orders[order.ID] = order

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID:      lead.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Principal:   accountingPrincipal,
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.July, 25, 0, 0, 0, 0, time.UTC), result.Invoice.DueDate)
	})

	t.Run("explicit due date is kept", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		lead := seedBillableLead(t, f)
		order := activeOrder(lead.ID, "Location A", 500, nil)
		f.orders.orders[order.ID] = order

		due := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID:      lead.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			DueDate:     due,
			Principal:   accountingPrincipal,
		})
		require.NoError(t, err)
		assert.Equal(t, due, result.Invoice.DueDate)
	})

	t.Run("no billable work", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		lead := seedBillableLead(t, f)

		_, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID:      lead.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Principal:   accountingPrincipal,
		})
		assert.ErrorIs(t, err, ErrNoBillableWork)
	})

	t.Run("orders starting after the period are excluded", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		lead := seedBillableLead(t, f)

		future := periodEnd.AddDate(0, 1, 0)
		order := activeOrder(lead.ID, "Location A", 500, nil)
		order.ServiceStartDate = &future
		f.orders.orders[order.ID] = order

		_, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID:      lead.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Principal:   accountingPrincipal,
		})
		assert.ErrorIs(t, err, ErrNoBillableWork)
	})

	t.Run("regeneration reuses the invoice id for the period", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		lead := seedBillableLead(t, f)
		order := activeOrder(lead.ID, "Location A", 500, nil)
		f.orders.orders[order.ID] = order

		first, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
		})
		require.NoError(t, err)
		second, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
		})
		require.NoError(t, err)

		assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
		assert.Len(t, f.billing.invoices, 1)

		// The first run's row wins; a re-run must not rotate the payment
		// token or repeat the activity entry and notification.
		stored, err := f.service.GetInvoice(ctx, first.Invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Invoice.PaymentToken, stored.PaymentToken)
		assert.Len(t, f.billing.activities, 1)
		assert.Len(t, f.billing.mail, 1)
	})

	t.Run("unknown vendor falls back to raw id", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		lead := seedBillableLead(t, f)

		ghost := uuid.New()
		order := activeOrder(lead.ID, "Location A", 500, &model.VendorAssignment{VendorID: ghost, VendorRate: 150})
		f.orders.orders[order.ID] = order

		result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
		})
		require.NoError(t, err)
		require.Len(t, result.Invoice.VendorPayouts, 1)
		assert.Equal(t, ghost.String(), result.Invoice.VendorPayouts[0].VendorName)
	})

	t.Run("requires accounting role", func(t *testing.T) {
		f := newBillingFixture(t, nil)
		_, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
			LeadID:      uuid.New(),
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Principal:   model.Principal{Role: model.RoleSales},
		})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("invariants hold for random work order sets", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for iter := 0; iter < 50; iter++ {
			f := newBillingFixture(t, nil)
			lead := seedBillableLead(t, f)

			vendorA := model.Vendor{ID: uuid.New(), Name: "A"}
			vendorB := model.Vendor{ID: uuid.New(), Name: "B"}
			f.vendors.vendors[vendorA.ID] = vendorA
			f.vendors.vendors[vendorB.ID] = vendorB
			vendorIDs := []uuid.UUID{vendorA.ID, vendorB.ID}

			count := 1 + rng.Intn(8)
			expectedVendors := map[uuid.UUID]bool{}
			for i := 0; i < count; i++ {
				clientRate := float64(100 + rng.Intn(900))
				var assignment *model.VendorAssignment
				if rng.Intn(3) > 0 {
					vendorID := vendorIDs[rng.Intn(2)]
					assignment = &model.VendorAssignment{VendorID: vendorID, VendorRate: float64(50 + rng.Intn(400))}
					expectedVendors[vendorID] = true
				}
				order := activeOrder(lead.ID, string(rune('A'+i)), clientRate, assignment)
				f.orders.orders[order.ID] = order
			}

			result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
				LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
			})
			require.NoError(t, err)

			invoice := result.Invoice
			assert.InDelta(t, invoice.Subtotal+invoice.TotalTax, invoice.TotalAmount, 0.011)
			assert.InDelta(t, invoice.TotalAmount-invoice.TotalPayouts, invoice.GrossMargin, 0.011)

			lineSum := 0.0
			for _, item := range invoice.LineItems {
				lineSum += item.Amount
			}
			assert.InDelta(t, lineSum, invoice.Subtotal, 0.011)

			payoutSum := 0.0
			for _, payout := range invoice.VendorPayouts {
				payoutSum += payout.Amount
			}
			assert.InDelta(t, payoutSum, invoice.TotalPayouts, 0.011)

			assert.Len(t, result.Remittances, len(expectedVendors))
			for _, remittance := range result.Remittances {
				assert.Equal(t, 0.0, remittance.TotalTax)
				itemSum := 0.0
				for _, item := range remittance.LineItems {
					itemSum += item.Amount
					assert.True(t, item.TaxExempt)
				}
				assert.InDelta(t, itemSum, remittance.TotalAmount, 0.011)
			}
		}
	})
}

func TestBillingService_MissingRemittances(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	f := newBillingFixture(t, nil)
	lead := seedBillableLead(t, f)

	vendor := model.Vendor{ID: uuid.New(), Name: "Vendor X"}
	f.vendors.vendors[vendor.ID] = vendor
	order := activeOrder(lead.ID, "Location A", 500, &model.VendorAssignment{VendorID: vendor.ID, VendorRate: 200})
	f.orders.orders[order.ID] = order

	// Simulate a run where remittance writes were lost.
	f.billing.failRemits = true
	result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
		LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
	})
	require.NoError(t, err)

	missing, err := f.service.MissingRemittances(ctx, result.Invoice.ID)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, vendor.ID, missing[0])

	// A re-run fills the gap.
	f.billing.failRemits = false
	_, err = f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
		LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
	})
	require.NoError(t, err)

	missing, err = f.service.MissingRemittances(ctx, result.Invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestBillingService_Payments(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	f := newBillingFixture(t, nil)
	lead := seedBillableLead(t, f)
	vendor := model.Vendor{ID: uuid.New(), Name: "Vendor X"}
	f.vendors.vendors[vendor.ID] = vendor
	order := activeOrder(lead.ID, "Location A", 500, &model.VendorAssignment{VendorID: vendor.ID, VendorRate: 200})
	f.orders.orders[order.ID] = order

	result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
		LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.MarkInvoicePaid(ctx, result.Invoice.ID, accountingPrincipal))
	invoice, err := f.service.GetInvoice(ctx, result.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, invoice.Status)
	require.NotNil(t, invoice.PaidAt)

	remittanceID := result.Remittances[0].ID
	require.NoError(t, f.service.MarkRemittancePaid(ctx, MarkRemittancePaidInput{
		RemittanceID: remittanceID,
		Method:       "ACH",
		Reference:    "batch-42",
		Principal:    accountingPrincipal,
	}))

	// Already paid.
	err = f.service.MarkRemittancePaid(ctx, MarkRemittancePaidInput{
		RemittanceID: remittanceID,
		Principal:    accountingPrincipal,
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBillingService_Exports(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	f := newBillingFixture(t, nil)
	lead := seedBillableLead(t, f)
	vendor := model.Vendor{ID: uuid.New(), Name: "Vendor X"}
	f.vendors.vendors[vendor.ID] = vendor
	order := activeOrder(lead.ID, "Location A", 500, &model.VendorAssignment{VendorID: vendor.ID, VendorRate: 200})
	f.orders.orders[order.ID] = order

	result, err := f.service.GenerateInvoice(ctx, GenerateInvoiceInput{
		LeadID: lead.ID, PeriodStart: periodStart, PeriodEnd: periodEnd, Principal: accountingPrincipal,
	})
	require.NoError(t, err)

	pdfExport, err := f.service.ExportInvoicePDF(ctx, result.Invoice.ID, accountingPrincipal)
	require.NoError(t, err)
	assert.NotEmpty(t, pdfExport.Content)
	assert.Contains(t, pdfExport.FileName, ".pdf")

	excelExport, err := f.service.ExportInvoiceExcel(ctx, result.Invoice.ID, accountingPrincipal)
	require.NoError(t, err)
	assert.NotEmpty(t, excelExport.Content)
	assert.Contains(t, excelExport.FileName, ".xlsx")

	_, err = f.service.ExportInvoicePDF(ctx, result.Invoice.ID, model.Principal{Role: model.RoleFSM})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDefaultDueDate(t *testing.T) {
	cases := []struct {
		periodEnd time.Time
		dueDay    int
		expected  time.Time
	}{
		{time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), 25, time.Date(2026, time.July, 25, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), 25, time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, DefaultDueDate(tc.periodEnd, tc.dueDay))
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.08, round2(0.084999))
	assert.Equal(t, 64.0, round2(800*0.08))
	assert.Equal(t, 0.1, round2(0.095))
	assert.True(t, math.Abs(round2(1.005)-1.0) <= 0.01)
}
