package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/brightserv/facilityops/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateLedger writes a summary sheet plus one sheet per staff member
// with that person's deals and payout schedules.
func (g *Generator) GenerateLedger(ledger model.CommissionLedger) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeLedgerSummary(file, summarySheet, ledger); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for staffID, rows := range groupRowsByStaff(ledger) {
		sheetName := buildSheetName("Staff", staffID.String(), staffID, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeStaffDetail(file, sheetName, staffID, rows); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeLedgerSummary(file *excelize.File, sheet string, ledger model.CommissionLedger) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	scope := "All staff"
	if ledger.StaffID != nil {
		scope = ledger.StaffID.String()
	}
	set("A1", "Commission ledger")
	set("B1", scope)
	set("A2", "Earned")
	set("B2", formatAmount(ledger.Earned))
	set("A3", "Pending")
	set("B3", formatAmount(ledger.Pending))
	set("A4", "Cancelled")
	set("B4", formatAmount(ledger.Cancelled))

	tableRow := 6
	headers := []string{"Staff", "Type", "MRR", "Total", "Earned", "Pending", "Cancelled", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, row := range ledger.Rows {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), row.Commission.StaffID.String())
		set(fmt.Sprintf("B%d", r), string(row.Commission.Type))
		set(fmt.Sprintf("C%d", r), formatAmount(row.Commission.MRR))
		set(fmt.Sprintf("D%d", r), formatAmount(row.Commission.TotalCommission))
		set(fmt.Sprintf("E%d", r), formatAmount(row.Earned))
		set(fmt.Sprintf("F%d", r), formatAmount(row.Pending))
		set(fmt.Sprintf("G%d", r), formatAmount(row.Cancelled))
		set(fmt.Sprintf("H%d", r), string(row.Commission.Status))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "H", 14)
	return nil
}

func (g *Generator) writeStaffDetail(file *excelize.File, sheet string, staffID uuid.UUID, rows []model.CommissionRow) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Staff")
	set("B1", staffID.String())

	tableRow := 3
	headers := []string{"Deal", "Type", "Month", "Amount", "Status", "Scheduled", "Paid"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	row := tableRow + 1
	for _, ledgerRow := range rows {
		for _, entry := range ledgerRow.Commission.PayoutSchedule {
			set(fmt.Sprintf("A%d", row), ledgerRow.Commission.ID.String())
			set(fmt.Sprintf("B%d", row), string(ledgerRow.Commission.Type))
			set(fmt.Sprintf("C%d", row), entry.MonthIndex)
			set(fmt.Sprintf("D%d", row), formatAmount(entry.Amount))
			set(fmt.Sprintf("E%d", row), string(entry.Status))
			set(fmt.Sprintf("F%d", row), formatDate(entry.ScheduledAt))
			set(fmt.Sprintf("G%d", row), formatOptionalDate(entry.PaidAt))
			row++
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "B", 18)
	_ = file.SetColWidth(sheet, "C", "G", 14)
	return nil
}

// GenerateInvoice writes one workbook with the client statement and the
// vendor remittance breakdown.
func (g *Generator) GenerateInvoice(invoice model.Invoice, remittances []model.VendorRemittance) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Invoice"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Client")
	set("B1", invoice.BusinessName)
	set("A2", "Period start")
	set("B2", formatDate(invoice.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(invoice.PeriodEnd))
	set("A4", "Due date")
	set("B4", formatDate(invoice.DueDate))
	set("A5", "Subtotal")
	set("B5", formatAmount(invoice.Subtotal))
	set("A6", "Tax")
	set("B6", formatAmount(invoice.TotalTax))
	set("A7", "Total")
	set("B7", formatAmount(invoice.TotalAmount))
	set("A8", "Vendor payouts")
	set("B8", formatAmount(invoice.TotalPayouts))
	set("A9", "Gross margin")
	set("B9", formatAmount(invoice.GrossMargin))

	tableRow := 11
	headers := []string{"Location", "Service", "Amount", "Tax rate", "Tax"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, item := range invoice.LineItems {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), item.Location)
		set(fmt.Sprintf("B%d", r), item.ServiceType)
		set(fmt.Sprintf("C%d", r), formatAmount(item.Amount))
		set(fmt.Sprintf("D%d", r), fmt.Sprintf("%.2f%%", item.TaxRate*100))
		set(fmt.Sprintf("E%d", r), formatAmount(item.TaxAmount))
	}

	_ = file.SetColWidth(sheet, "A", "B", 32)
	_ = file.SetColWidth(sheet, "C", "E", 14)

	usedNames := map[string]struct{}{sheet: {}}
	for _, remittance := range remittances {
		name := buildSheetName("Vendor", remittance.VendorName, remittance.VendorID, usedNames)
		usedNames[name] = struct{}{}

		file.NewSheet(name)
		if err := g.writeRemittance(file, name, remittance); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeRemittance(file *excelize.File, sheet string, remittance model.VendorRemittance) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Vendor")
	set("B1", remittance.VendorName)
	set("A2", "Period start")
	set("B2", formatDate(remittance.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(remittance.PeriodEnd))
	set("A4", "Total")
	set("B4", formatAmount(remittance.TotalAmount))
	set("A5", "Tax")
	set("B5", formatAmount(remittance.TotalTax))
	set("A6", "Exemption certificate")
	set("B6", remittance.CertificateID)

	tableRow := 8
	headers := []string{"Location", "Service", "Amount"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, item := range remittance.LineItems {
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), item.Location)
		set(fmt.Sprintf("B%d", r), item.ServiceType)
		set(fmt.Sprintf("C%d", r), formatAmount(item.Amount))
	}

	_ = file.SetColWidth(sheet, "A", "B", 32)
	_ = file.SetColWidth(sheet, "C", "C", 14)
	return nil
}

func groupRowsByStaff(ledger model.CommissionLedger) map[uuid.UUID][]model.CommissionRow {
	grouped := make(map[uuid.UUID][]model.CommissionRow)
	for _, row := range ledger.Rows {
		grouped[row.Commission.StaffID] = append(grouped[row.Commission.StaffID], row)
	}
	return grouped
}

func buildSheetName(label, name string, id uuid.UUID, used map[string]struct{}) string {
	base := fmt.Sprintf("%s - %s", label, strings.TrimSpace(name))
	if strings.TrimSpace(name) == "" {
		base = fmt.Sprintf("%s - %s", label, id.String())
	}
	base = sanitizeSheetName(base)

	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
