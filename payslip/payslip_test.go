package payslip_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payslip"
)

func samplePayslip(t *testing.T, base string, deductions ...payroll.DeductionEvent) payslip.Payslip {
	t.Helper()
	emp := generic.Employee{ID: "emp-1", Name: "Ana Quispe", HireDate: generic.NewTimePoint(2021, time.January, 15)}
	today := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	b, err := payroll.NewCalculator(payroll.DefaultPolicy()).Compute(payroll.Input{
		Employee: emp,
		BaseSalary: &generic.BaseSalary{
			ID: "bs-1", EmployeeID: emp.ID,
			Amount:    generic.MustParseMoney(base, generic.CurrencyBOB),
			StartDate: generic.NewTimePoint(2024, time.January, 1),
		},
		Deductions: deductions,
		Period:     generic.PeriodForInstant(today),
		Today:      today,
	})
	require.NoError(t, err)
	return payslip.Payslip{Employee: emp, Breakdown: b, StatutoryLabel: "AFP"}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, payslip.WritePDF(&buf, samplePayslip(t, "5000")))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

func TestLines_Layout(t *testing.T) {
	lines := payslip.Lines(samplePayslip(t, "5000"))

	// base, bonus, gross, AFP, 3 buckets, total deductions, net
	require.Len(t, lines, 9)
	assert.Equal(t, "Salario base", lines[0].Label)
	assert.Equal(t, "3 años, 15%", lines[1].Detail)
	assert.Equal(t, "AFP", lines[3].Label)
	assert.Equal(t, "12.71%", lines[3].Detail)
	assert.Equal(t, "Permisos", lines[4].Label)
	assert.Equal(t, "Líquido pagable", lines[8].Label)
	assert.True(t, lines[8].Strong)
}

func TestWriteText_NegativeNetWarning(t *testing.T) {
	p := samplePayslip(t, "100", payroll.DeductionEvent{
		ID: "d-1", Category: payroll.CategoryOther,
		Amount: generic.MustParseMoney("500", generic.CurrencyBOB),
	})

	var buf bytes.Buffer
	require.NoError(t, payslip.WriteText(&buf, p))

	out := buf.String()
	assert.Contains(t, out, "Empleado: Ana Quispe (emp-1)")
	assert.Contains(t, out, "Periodo: 2024-03-01 al 2024-03-31")
	assert.True(t, strings.Contains(out, "ATENCIÓN"))
}

func TestDisplay_UnknownCurrencyFallsBack(t *testing.T) {
	m := generic.MustParseMoney("12.5", generic.Currency("ZZZ"))
	assert.Equal(t, "12.50 ZZZ", payslip.Display(m))
}
