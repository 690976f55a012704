// Package guard centralizes session and role gating for every protected
// screen, replacing per-page redirect branching with one contract.
package guard

import (
	"fmt"
	"log/slog"

	"expenseport/internal/apperrors"
	"expenseport/internal/core/domain"
	"expenseport/internal/session"
)

// Page identifies a navigable screen.
type Page string

const (
	PageLogin     Page = "login"
	PageSignup    Page = "signup"
	PageOverview  Page = "overview"
	PageSubmit    Page = "submit"
	PageAdmin     Page = "admin"
	PagePolicies  Page = "policies"
	PageDashboard Page = "dashboard"
)

// Navigator abstracts "where the user is" and "send the user somewhere".
type Navigator interface {
	Current() Page
	To(Page)
}

// Guard enforces the session and role requirements of protected screens.
type Guard struct {
	store  *session.Store
	nav    Navigator
	logger *slog.Logger
}

// New creates a Guard bound to the session store and navigator.
func New(store *session.Store, nav Navigator, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, nav: nav, logger: logger}
}

// RequireSession sends the user to the login page when no token is present.
// It never navigates while already on the login page, which is the guard
// against redirect loops.
func (g *Guard) RequireSession() error {
	if g.store.Token() != "" {
		return nil
	}
	if g.nav.Current() != PageLogin {
		g.nav.To(PageLogin)
	}
	return fmt.Errorf("%w: please log in", apperrors.ErrUnauthorized)
}

// RequireRole verifies the stored role is in the allowed set. A wrong-role
// visit is treated as an authorization failure: the session is cleared and
// the user is sent to login, not to their own dashboard.
func (g *Guard) RequireRole(allowed ...domain.Role) error {
	if err := g.RequireSession(); err != nil {
		return err
	}
	role := g.store.Role()
	for _, r := range allowed {
		if role == r {
			return nil
		}
	}
	g.logger.Warn("Role not permitted on this page", slog.String("role", string(role)))
	g.store.Clear()
	g.nav.To(PageLogin)
	return fmt.Errorf("%w: access denied", apperrors.ErrUnauthorized)
}

// HomePage maps a role to its landing page after login.
func HomePage(role domain.Role) (Page, error) {
	switch role {
	case domain.RoleAdmin:
		return PageAdmin, nil
	case domain.RoleEmployee:
		return PageOverview, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownRole, role)
	}
}
