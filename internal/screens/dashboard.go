package screens

import (
	"context"
	"fmt"
	"io"

	"expenseport/internal/core/domain"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
)

// DashboardScreen shows the spending overview figures.
type DashboardScreen struct {
	inlineMessage
	gw    *gateway.Client
	guard *guard.Guard
	out   io.Writer

	summary *domain.DashboardSummary
}

// NewDashboardScreen creates the dashboard screen.
func NewDashboardScreen(gw *gateway.Client, g *guard.Guard, out io.Writer) *DashboardScreen {
	return &DashboardScreen{gw: gw, guard: g, out: out}
}

// Load verifies admin access and fetches the summary.
func (s *DashboardScreen) Load(ctx context.Context) error {
	s.set("")
	if err := s.guard.RequireRole(domain.RoleAdmin); err != nil {
		s.set(errorText(err))
		return err
	}
	summary, err := s.gw.Dashboard(ctx)
	if err != nil {
		s.set("Error loading dashboard: " + errorText(err))
		return err
	}
	s.summary = summary
	return nil
}

// Summary returns the loaded dashboard figures.
func (s *DashboardScreen) Summary() *domain.DashboardSummary { return s.summary }

// Render writes the dashboard to the screen's output.
func (s *DashboardScreen) Render() {
	if s.summary == nil {
		fmt.Fprintln(s.out, "Dashboard not loaded.")
		return
	}
	fmt.Fprintf(s.out, "Total Spending:    %s\n", s.summary.TotalSpending.StringFixed(2))
	fmt.Fprintf(s.out, "Flagged Expenses:  %d\n", s.summary.FlaggedExpenses)
	fmt.Fprintf(s.out, "Policy Violations: %d\n", s.summary.PolicyViolations)

	if len(s.summary.MonthlySpending) > 0 {
		fmt.Fprintln(s.out, "\nMonthly Spending")
		for _, m := range s.summary.MonthlySpending {
			fmt.Fprintf(s.out, "  %s  %s\n", m.Month, m.Amount.StringFixed(2))
		}
	}
	if len(s.summary.CategorySpending) > 0 {
		fmt.Fprintln(s.out, "\nSpending by Category")
		for _, c := range s.summary.CategorySpending {
			fmt.Fprintf(s.out, "  %-12s %s\n", c.Category, c.Amount.StringFixed(2))
		}
	}
	if len(s.summary.FlaggedItems) > 0 {
		fmt.Fprintln(s.out, "\nFlagged Expenses")
		for _, item := range s.summary.FlaggedItems {
			fmt.Fprintf(s.out, "  %s - %s (%s), submitted by %s\n",
				item.Amount.StringFixed(2), item.Description, item.Category, item.SubmittedBy)
		}
	}
}
