package apperrors

import "errors"

// ErrUnauthorized indicates the backend rejected the session (401/403).
var ErrUnauthorized = errors.New("unauthorized")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConnectivity indicates a transport-level failure before any response arrived.
var ErrConnectivity = errors.New("could not reach the expense service")

// ErrInFlight indicates the same mutating action is already outstanding.
var ErrInFlight = errors.New("action already in progress")

// ErrUnknownRole indicates the backend returned a role this client does not know.
var ErrUnknownRole = errors.New("unknown user role")
