package screens

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/dto"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
)

// SubmitScreen is the expense submission form.
type SubmitScreen struct {
	inlineMessage
	gw    *gateway.Client
	guard *guard.Guard
	nav   guard.Navigator
	out   io.Writer

	// Form holds the current field values, like the page's input elements.
	Form dto.SubmitExpenseRequest
}

// NewSubmitScreen creates the expense form screen.
func NewSubmitScreen(gw *gateway.Client, g *guard.Guard, nav guard.Navigator, out io.Writer) *SubmitScreen {
	return &SubmitScreen{gw: gw, guard: g, nav: nav, out: out}
}

// Submit validates the form, posts it as multipart with the receipt file, and
// resets the fields on success. Validation failures issue zero network calls.
func (s *SubmitScreen) Submit(ctx context.Context) (*domain.Expense, error) {
	s.set("")

	if err := s.guard.RequireSession(); err != nil {
		s.set(errorText(err))
		return nil, err
	}

	if err := s.Form.Validate(); err != nil {
		s.set(errorText(err))
		return nil, err
	}

	receipt, err := os.Open(s.Form.ReceiptPath)
	if err != nil {
		s.set("Could not open the receipt file.")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, s.Form.ReceiptPath)
	}
	defer receipt.Close()

	expense, err := s.gw.SubmitExpense(ctx, s.Form, receipt, filepath.Base(s.Form.ReceiptPath))
	if err != nil {
		s.set("Error submitting expense: " + errorText(err))
		return nil, err
	}

	s.set("Expense submitted successfully! ID: " + expense.ID)
	fmt.Fprintln(s.out, s.Message())
	s.Form = dto.SubmitExpenseRequest{}
	return expense, nil
}

// Logout clears the session and routes to login.
func (s *SubmitScreen) Logout(ctx context.Context) {
	s.gw.Logout(ctx)
	s.nav.To(guard.PageLogin)
}
