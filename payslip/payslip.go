/*
Package payslip renders a computed payroll.Breakdown for people.

PURPOSE:
  One payslip layout, two outputs: a PDF for download (gofpdf) and a plain
  text table for the CLI. Both show the same lines in the same order:
  period, base salary, seniority, gross, statutory withholding, deduction
  buckets, totals and net.

USAGE:
  err := payslip.WritePDF(w, payslip.Payslip{Employee: emp, Breakdown: b, StatutoryLabel: "AFP"})
  err := payslip.WriteText(os.Stdout, p)

SEE ALSO:
  - payroll/types.go: Breakdown
  - api/handlers.go: GET /api/payrolls/payslip/employees/{id}.pdf
*/
package payslip

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/jung-kurt/gofpdf"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// Payslip is everything printed on one payslip.
type Payslip struct {
	Employee       generic.Employee
	Breakdown      payroll.Breakdown
	StatutoryLabel string
}

// Line is one labelled amount on the payslip.
type Line struct {
	Label  string
	Detail string
	Amount string
	Strong bool
}

var categoryLabels = map[payroll.Category]string{
	payroll.CategoryPermission: "Permisos",
	payroll.CategoryAbsence:    "Faltas",
	payroll.CategoryOther:      "Otros descuentos",
}

// Display formats an amount with its currency symbol, e.g. "Bs.5,019.17".
// Unknown currencies fall back to "5019.17 XYZ".
func Display(m generic.Money) string {
	if money.GetCurrency(string(m.Currency)) == nil {
		return m.String()
	}
	return money.New(m.MinorUnits(), string(m.Currency)).Display()
}

// Lines lays out the payslip body.
func Lines(p Payslip) []Line {
	b := p.Breakdown
	label := p.StatutoryLabel
	if label == "" {
		label = "Aporte"
	}

	lines := []Line{
		{Label: "Salario base", Amount: Display(b.BaseSalary)},
		{
			Label:  "Bono antigüedad",
			Detail: fmt.Sprintf("%d años, %s%%", b.YearsWorked, b.SeniorityRate.Percent().StringFixed(0)),
			Amount: Display(b.SeniorityBonus),
		},
		{Label: "Total ganado", Amount: Display(b.GrossAmount), Strong: true},
		{
			Label:  label,
			Detail: b.StatutoryRate.Percent().StringFixed(2) + "%",
			Amount: Display(b.StatutoryDeduction.Neg()),
		},
	}
	for _, bucket := range b.Buckets {
		lines = append(lines, Line{
			Label:  categoryLabels[bucket.Category],
			Detail: fmt.Sprintf("%d", bucket.Count),
			Amount: Display(bucket.Total.Neg()),
		})
	}
	lines = append(lines,
		Line{Label: "Total descuentos", Amount: Display(b.TotalDeductions.Neg()), Strong: true},
		Line{Label: "Líquido pagable", Amount: Display(b.NetAmount), Strong: true},
	)
	return lines
}

func header(p Payslip) []string {
	b := p.Breakdown
	return []string{
		fmt.Sprintf("Empleado: %s (%s)", p.Employee.Name, p.Employee.ID),
		fmt.Sprintf("Fecha de ingreso: %s", p.Employee.HireDate),
		fmt.Sprintf("Periodo: %s al %s", b.Period.Start, b.Period.End),
	}
}

func warnings(p Payslip) []string {
	var out []string
	if p.Breakdown.HasWarning(payroll.WarningNegativeNet) {
		out = append(out, "ATENCIÓN: los descuentos superan el total ganado (líquido negativo)")
	}
	return out
}

// =============================================================================
// PDF
// =============================================================================

// WritePDF renders the payslip as a single A4 page.
func WritePDF(w io.Writer, p Payslip) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Boleta de pago %d - %s", p.Breakdown.Period.Key(), p.Employee.Name), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Boleta de pago"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, h := range header(p) {
		pdf.Cell(0, 7, tr(h))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	for _, l := range Lines(p) {
		style := ""
		if l.Strong {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(80, 8, tr(l.Label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, tr(l.Detail), "B", 0, "C", false, 0, "")
		pdf.CellFormat(60, 8, tr(l.Amount), "B", 1, "R", false, 0, "")
	}

	if ws := warnings(p); len(ws) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(180, 0, 0)
		for _, warning := range ws {
			pdf.MultiCell(0, 6, tr(warning), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payslip pdf: %w", err)
	}
	return nil
}

// =============================================================================
// TEXT
// =============================================================================

// WriteText renders the payslip as an aligned text table.
func WriteText(w io.Writer, p Payslip) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, h := range header(p) {
		fmt.Fprintln(w, h)
	}
	fmt.Fprintln(w, strings.Repeat("-", 56))
	for _, l := range Lines(p) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", l.Label, l.Detail, l.Amount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, warning := range warnings(p) {
		fmt.Fprintln(w, warning)
	}
	return nil
}
