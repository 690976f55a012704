package screens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
)

// ReviewRow is one rendered row on the admin dashboard. Busy marks an
// outstanding action on the row; Actionable marks whether the approve and
// reject controls exist at all.
type ReviewRow struct {
	Expense    domain.Expense
	Busy       bool
	Actionable bool
}

// ActionsDisabled reports whether the row's controls accept input.
func (r *ReviewRow) ActionsDisabled() bool {
	return r.Busy || !r.Actionable
}

// AdminScreen is the admin review dashboard.
type AdminScreen struct {
	inlineMessage
	gw    *gateway.Client
	guard *guard.Guard
	nav   guard.Navigator
	out   io.Writer

	rows []*ReviewRow
}

// NewAdminScreen creates the admin dashboard screen.
func NewAdminScreen(gw *gateway.Client, g *guard.Guard, nav guard.Navigator, out io.Writer) *AdminScreen {
	return &AdminScreen{gw: gw, guard: g, nav: nav, out: out}
}

// Load verifies admin access and fetches every submission for review.
func (s *AdminScreen) Load(ctx context.Context) error {
	s.set("")
	if err := s.guard.RequireRole(domain.RoleAdmin); err != nil {
		s.set(errorText(err))
		return err
	}

	expenses, err := s.gw.AdminListExpenses(ctx)
	if err != nil {
		s.set("Error fetching expenses: " + errorText(err))
		return err
	}

	s.rows = make([]*ReviewRow, 0, len(expenses))
	for _, e := range expenses {
		s.rows = append(s.rows, &ReviewRow{Expense: e, Actionable: e.Actionable()})
	}
	return nil
}

// Rows returns the rendered review rows.
func (s *AdminScreen) Rows() []*ReviewRow { return s.rows }

// Row returns the row for an expense id, or nil.
func (s *AdminScreen) Row(expenseID string) *ReviewRow {
	for _, row := range s.rows {
		if row.Expense.ID == expenseID {
			return row
		}
	}
	return nil
}

// Approve runs the approve action on one row.
func (s *AdminScreen) Approve(ctx context.Context, expenseID string) error {
	return s.review(ctx, expenseID, domain.StatusApproved, s.gw.ApproveExpense)
}

// Reject runs the reject action on one row.
func (s *AdminScreen) Reject(ctx context.Context, expenseID string) error {
	return s.review(ctx, expenseID, domain.StatusRejected, s.gw.RejectExpense)
}

// review disables both controls for the duration of the call, patches the row
// on success, and re-enables the controls on a non-auth failure.
func (s *AdminScreen) review(ctx context.Context, expenseID string, status domain.ExpenseStatus, call func(context.Context, string) error) error {
	s.set("")

	row := s.Row(expenseID)
	if row == nil {
		s.set("Expense not found.")
		return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
	}
	if row.ActionsDisabled() {
		return fmt.Errorf("%w: review of %s", apperrors.ErrInFlight, expenseID)
	}

	row.Busy = true
	err := call(ctx, expenseID)
	row.Busy = false

	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			// Session already torn down and routed by the gateway.
			s.set(errorText(err))
			return err
		}
		s.set(fmt.Sprintf("Error updating expense: %s", errorText(err)))
		return err
	}

	row.Expense.Status = status
	row.Actionable = false
	s.set(fmt.Sprintf("Expense %s successfully.", status))
	return nil
}

// Render writes the review table to the screen's output.
func (s *AdminScreen) Render() {
	if len(s.rows) == 0 {
		fmt.Fprintln(s.out, "No expenses submitted yet.")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tAMOUNT\tDATE\tVENDOR\tSTATUS\tACTIONS")
	for _, row := range s.rows {
		e := row.Expense
		actions := "-"
		if row.Actionable {
			actions = "approve | reject"
			if row.Busy {
				actions = "(working...)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\t%s\n",
			e.ID, e.SubmittedBy, e.Currency, e.Amount.StringFixed(2), e.Date, e.Vendor, e.Status, actions)
	}
	tw.Flush()
}

// Logout clears the session and routes to login.
func (s *AdminScreen) Logout(ctx context.Context) {
	s.gw.Logout(ctx)
	s.nav.To(guard.PageLogin)
}
