package screens

import (
	"context"
	"fmt"
	"io"

	"expenseport/internal/core/domain"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
)

const recentCount = 3

// OverviewScreen is the employee's submission history page.
type OverviewScreen struct {
	inlineMessage
	gw    *gateway.Client
	guard *guard.Guard
	nav   guard.Navigator
	out   io.Writer

	recent []domain.Expense
	all    []domain.Expense
}

// NewOverviewScreen creates the overview screen.
func NewOverviewScreen(gw *gateway.Client, g *guard.Guard, nav guard.Navigator, out io.Writer) *OverviewScreen {
	return &OverviewScreen{gw: gw, guard: g, nav: nav, out: out}
}

// Load fetches the caller's expenses and splits off the recent slice.
func (s *OverviewScreen) Load(ctx context.Context) error {
	s.set("")
	if err := s.guard.RequireSession(); err != nil {
		s.set(errorText(err))
		return err
	}

	expenses, err := s.gw.ListExpenses(ctx)
	if err != nil {
		s.set("Error loading expenses: " + errorText(err))
		return err
	}

	s.all = expenses
	if len(expenses) > recentCount {
		s.recent = expenses[:recentCount]
	} else {
		s.recent = expenses
	}
	return nil
}

// Recent returns the most recent submissions.
func (s *OverviewScreen) Recent() []domain.Expense { return s.recent }

// All returns the full submission history.
func (s *OverviewScreen) All() []domain.Expense { return s.all }

// Render writes the overview to the screen's output.
func (s *OverviewScreen) Render() {
	fmt.Fprintln(s.out, "Recent Submissions")
	renderExpenses(s.out, s.recent)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Past Expenses")
	renderExpenses(s.out, s.all)
}

// Logout clears the session and routes to login.
func (s *OverviewScreen) Logout(ctx context.Context) {
	s.gw.Logout(ctx)
	s.nav.To(guard.PageLogin)
}
