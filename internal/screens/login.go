package screens

import (
	"context"
	"fmt"
	"io"

	"expenseport/internal/apperrors"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
	"expenseport/internal/session"
)

// LoginScreen is the login entry point.
type LoginScreen struct {
	inlineMessage
	gw    *gateway.Client
	store *session.Store
	nav   guard.Navigator
	out   io.Writer
}

// NewLoginScreen creates the login screen.
func NewLoginScreen(gw *gateway.Client, store *session.Store, nav guard.Navigator, out io.Writer) *LoginScreen {
	return &LoginScreen{gw: gw, store: store, nav: nav, out: out}
}

// Run performs a login attempt and routes by role on success. A visit while
// already authenticated skips straight to the caller's own dashboard; this is
// the login page's convenience branch, not the guard's wrong-role policy.
func (s *LoginScreen) Run(ctx context.Context, username, password string) error {
	s.set("")

	if s.store.Token() != "" {
		if page, err := guard.HomePage(s.store.Role()); err == nil {
			s.nav.To(page)
			return nil
		}
	}

	if username == "" || password == "" {
		s.set("Username and password are required.")
		return fmt.Errorf("%w: missing credentials", apperrors.ErrValidation)
	}

	sess, err := s.gw.Login(ctx, username, password)
	if err != nil {
		s.set(errorText(err))
		return err
	}

	if err := s.store.Save(sess.Token, &sess.User); err != nil {
		s.set("Could not persist the session. Please try again.")
		return err
	}

	page, err := guard.HomePage(sess.User.Role)
	if err != nil {
		s.set("Login successful, but role unknown. Cannot redirect.")
		return err
	}

	s.set("Login successful! Redirecting...")
	fmt.Fprintln(s.out, s.Message())
	s.nav.To(page)
	return nil
}
