package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/brightserv/facilityops/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

// Generate renders the client invoice statement with a remittance summary
// block for internal review copies.
func (g *Generator) Generate(invoice model.Invoice, remittances []model.VendorRemittance) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Service Invoice", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Invoice %s", invoice.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Billing period %s - %s", formatDate(invoice.PeriodStart), formatDate(invoice.PeriodEnd)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Bill to", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, safeValue(invoice.BusinessName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Due date: %s", formatDate(invoice.DueDate)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Services", "", 1, "L", false, 0, "")

	headers := []string{"Location", "Service", "Amount", "Tax rate", "Tax"}
	colWidths := []float64{60, 50, 25, 20, 25}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, item := range invoice.LineItems {
		row := []string{
			item.Location,
			item.ServiceType,
			formatAmount(item.Amount, 2),
			fmt.Sprintf("%.2f%%", item.TaxRate*100),
			formatAmount(item.TaxAmount, 2),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Subtotal: $%s", formatAmount(invoice.Subtotal, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Tax: $%s", formatAmount(invoice.TotalTax, 2)), "", 1, "R", false, 0, "")
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total due: $%s", formatAmount(invoice.TotalAmount, 2)), "", 1, "R", false, 0, "")

	if len(remittances) > 0 {
		pdf.Ln(4)
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Vendor remittances", "", 1, "L", false, 0, "")

		remitHeaders := []string{"Vendor", "Amount", "Tax", "Certificate"}
		remitWidths := []float64{80, 30, 30, 40}
		drawTableRow(pdf, g.fontName, remitHeaders, remitWidths, true)
		for _, remittance := range remittances {
			row := []string{
				safeValue(remittance.VendorName),
				formatAmount(remittance.TotalAmount, 2),
				formatAmount(remittance.TotalTax, 2),
				remittance.CertificateID,
			}
			drawTableRow(pdf, g.fontName, row, remitWidths, false)
		}

		pdf.Ln(2)
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, "Vendor remittances are tax exempt under resale certificate "+model.ResaleCertificate+".", "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
