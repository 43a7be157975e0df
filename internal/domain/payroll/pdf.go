package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderPayslip draws a one-page PDF payslip for rec.
func RenderPayslip(rec Record, generatedAt time.Time) ([]byte, error) {
	period := time.Date(rec.Year, time.Month(rec.Month), 1, 0, 0, 0, 0, time.UTC)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", rec.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", rec.EmployeeEmail))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", period.Format("January 2006")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", rec.Status))
	pdf.Ln(10)

	lines := []struct {
		label  string
		amount string
	}{
		{"Base salary", rec.BaseSalary.StringFixed(2)},
		{"Overtime", rec.Overtime.StringFixed(2)},
		{"Bonuses", rec.Bonuses.StringFixed(2)},
		{"Deductions", "-" + rec.Deductions.StringFixed(2)},
	}
	for _, line := range lines {
		pdf.CellFormat(80, 8, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, line.amount, "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(80, 10, "Net salary", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 10, rec.NetSalary.StringFixed(2), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}
