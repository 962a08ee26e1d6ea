package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/payroll-engine/absence"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payslip"
)

// newComputeCmd computes one payslip from flags, without a database.
func newComputeCmd(a *app) *cobra.Command {
	var (
		base       string
		hireDate   string
		today      string
		name       string
		deductions []string
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a payslip from flags",
		Long: `Compute a payslip for one employee and print it.

Deductions are KIND:AMOUNT:DESCRIPTION with KIND one of PERMISSION, ABSENCE
or OTHER. An empty KIND (":41.67:Permiso medio día") classifies the
description the way legacy salary events are classified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			currency := a.policy.Payroll.Currency

			amount, err := generic.ParseMoney(base, currency)
			if err != nil {
				return err
			}
			hired, err := generic.ParseDate(hireDate)
			if err != nil {
				return fmt.Errorf("--hire-date: %w", err)
			}
			now := time.Now().In(a.cfg.Location())
			if today != "" {
				d, err := generic.ParseDate(today)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				now = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, a.cfg.Location())
			}

			events := make([]payroll.DeductionEvent, 0, len(deductions))
			for i, raw := range deductions {
				ev, err := parseDeduction(raw, currency)
				if err != nil {
					return err
				}
				ev.ID = fmt.Sprintf("cli-%d", i+1)
				events = append(events, ev)
			}

			emp := generic.Employee{ID: "cli", Name: name, HireDate: hired}
			b, err := payroll.NewCalculator(a.policy.Payroll).Compute(payroll.Input{
				Employee: emp,
				BaseSalary: &generic.BaseSalary{
					ID:         "cli",
					EmployeeID: emp.ID,
					Amount:     amount,
					StartDate:  hired,
				},
				Deductions: events,
				Period:     generic.PeriodForInstant(now),
				Today:      now,
			})
			if err != nil {
				return err
			}
			return payslip.WriteText(cmd.OutOrStdout(), payslip.Payslip{
				Employee:       emp,
				Breakdown:      b,
				StatutoryLabel: a.policy.Payroll.StatutoryLabel,
			})
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Monthly base salary, e.g. 5000.00")
	cmd.Flags().StringVar(&hireDate, "hire-date", "", "Hire date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&today, "today", "", "Computation date (YYYY-MM-DD), default now")
	cmd.Flags().StringVar(&name, "name", "Empleado", "Employee name on the payslip")
	cmd.Flags().StringArrayVar(&deductions, "deduction", nil, "KIND:AMOUNT:DESCRIPTION, repeatable")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("hire-date")
	return cmd
}

// parseDeduction reads KIND:AMOUNT:DESCRIPTION. The description may itself
// contain colons.
func parseDeduction(raw string, currency generic.Currency) (payroll.DeductionEvent, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return payroll.DeductionEvent{}, &generic.ValidationError{
			Field: "deduction", Message: fmt.Sprintf("%q: expected KIND:AMOUNT[:DESCRIPTION]", raw),
		}
	}
	var description string
	if len(parts) == 3 {
		description = strings.TrimSpace(parts[2])
	}

	amount, err := generic.ParseMoney(strings.TrimSpace(parts[1]), currency)
	if err != nil {
		return payroll.DeductionEvent{}, err
	}
	if err := generic.CheckPositiveAmount("deduction", amount); err != nil {
		return payroll.DeductionEvent{}, err
	}

	var category payroll.Category
	switch kind := strings.ToUpper(strings.TrimSpace(parts[0])); kind {
	case "":
		category = payroll.ClassifyDescription(description)
	case string(payroll.CategoryPermission), string(payroll.CategoryAbsence), string(payroll.CategoryOther):
		category = payroll.Category(kind)
	default:
		return payroll.DeductionEvent{}, &generic.ValidationError{
			Field: "deduction", Message: fmt.Sprintf("unknown kind %q", parts[0]),
		}
	}
	return payroll.DeductionEvent{
		Category:    category,
		Description: description,
		Amount:      amount,
		Source:      payroll.SourceSalaryEvent,
	}, nil
}

// newPriceCmd prints what a permission or absence deducts.
func newPriceCmd(a *app) *cobra.Command {
	var kind, duration string

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a permission or absence",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := generic.ParseAbsenceKind(kind)
			if err != nil {
				return err
			}
			d, err := generic.ParseAbsenceDuration(duration)
			if err != nil {
				return err
			}
			if k == absence.KindAbsence {
				d = nil
			}
			price, err := a.policy.Pricing.Price(k, d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", absence.Describe(k, d, "", ""), payslip.Display(price))
			return err
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "PERMISSION or ABSENCE")
	cmd.Flags().StringVar(&duration, "duration", "", "HALF_DAY or FULL_DAY (permissions only)")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
