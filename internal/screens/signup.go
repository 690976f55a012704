package screens

import (
	"context"
	"fmt"
	"io"

	"expenseport/internal/apperrors"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
)

// SignupScreen is the account creation page.
type SignupScreen struct {
	inlineMessage
	gw  *gateway.Client
	nav guard.Navigator
	out io.Writer
}

// NewSignupScreen creates the signup screen.
func NewSignupScreen(gw *gateway.Client, nav guard.Navigator, out io.Writer) *SignupScreen {
	return &SignupScreen{gw: gw, nav: nav, out: out}
}

// Run validates locally, registers the account, and routes to login on
// success. No network call is issued when local validation fails.
func (s *SignupScreen) Run(ctx context.Context, username, password, confirmPassword string) error {
	s.set("")

	switch {
	case username == "" || password == "" || confirmPassword == "":
		s.set("All fields are required.")
	case password != confirmPassword:
		s.set("Passwords do not match.")
	case len(password) < 8:
		s.set("Password must be at least 8 characters long.")
	}
	if s.Message() != "" {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, s.Message())
	}

	message, err := s.gw.Signup(ctx, username, password)
	if err != nil {
		s.set(errorText(err))
		return err
	}

	s.set(message + " Redirecting to login...")
	fmt.Fprintln(s.out, s.Message())
	s.nav.To(guard.PageLogin)
	return nil
}
