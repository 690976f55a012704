package session

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expenseport/internal/core/domain"
	"expenseport/internal/localstate"
)

const (
	tokenKey = "authToken"
	userKey  = "userData"
)

// Store persists the bearer token and the user record across process runs.
// Accessors fail soft: malformed or missing state reads as an absent session,
// never as an error to the caller.
type Store struct {
	db     *localstate.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a session store on top of the local state database.
func NewStore(db *localstate.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// Save persists the token and user record together. It no-ops on an empty
// token or a nil user so a partial login response never half-populates state.
func (s *Store) Save(token string, user *domain.User) error {
	if token == "" || user == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.db.Set(tokenKey, token); err != nil {
		return err
	}
	return s.db.Set(userKey, string(data))
}

// Token returns the stored bearer token, or "" when no usable session exists.
// Tokens that happen to be JWTs with a lapsed expiry are treated as absent and
// the session is destroyed; anything else stays opaque.
func (s *Store) Token() string {
	token, err := s.db.Get(tokenKey)
	if err != nil {
		s.logger.Warn("Failed to read stored token", slog.String("error", err.Error()))
		return ""
	}
	if token == "" {
		return ""
	}
	if s.expired(token) {
		s.logger.Info("Stored token has expired, clearing session")
		s.Clear()
		return ""
	}
	return token
}

// User returns the stored user record, or nil when absent or unparseable.
func (s *Store) User() *domain.User {
	raw, err := s.db.Get(userKey)
	if err != nil || raw == "" {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("Stored user record is malformed", slog.String("error", err.Error()))
		return nil
	}
	return &user
}

// Role returns the stored user's role, or "" when no user is stored.
func (s *Store) Role() domain.Role {
	user := s.User()
	if user == nil {
		return ""
	}
	return user.Role
}

// Clear removes the token and user record unconditionally.
func (s *Store) Clear() {
	if err := s.db.Delete(tokenKey, userKey); err != nil {
		s.logger.Warn("Failed to clear session state", slog.String("error", err.Error()))
	}
}

// expired peeks at a JWT expiry claim without verifying the signature. The
// token is server-owned and opaque; this only avoids presenting a credential
// the backend is guaranteed to reject.
func (s *Store) expired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(s.now())
}
