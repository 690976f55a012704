package dto

import "expenseport/internal/core/domain"

// LoginRequest is the JSON body for POST /login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the success body for POST /login.
type LoginResponse struct {
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// SignupRequest is the JSON body for POST /signup. The role defaults
// server-side; the client never sends one.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// MessageResponse is the generic message-only success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error body shape shared by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MeResponse is the body for GET /me.
type MeResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}
