package service

import "errors"

// Workflow-boundary errors. Every handler maps these to a stable
// machine-readable kind and an HTTP status; nothing below this layer leaks to
// API callers uninterpreted.
var (
	// validation
	ErrValidation    = errors.New("invalid input")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrEmptyQuery    = errors.New("search query must not be empty")
	ErrInvalidStatus = errors.New("invalid offer status")

	// conflict
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrQuotaExceeded          = errors.New("active offer quota exceeded")
	ErrImageLimitReached      = errors.New("offer image limit reached")
	ErrConflict               = errors.New("resource was modified concurrently, retry the request")

	// authentication / authorization
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account email is not verified")
	ErrForbidden          = errors.New("user not authorized to perform this action")

	// token lifecycle
	ErrInvalidCode = errors.New("invalid verification code")
	ErrCodeExpired = errors.New("verification code has expired")

	// lookups
	ErrNotFound = errors.New("entity not found")

	// downstream collaborators
	ErrDeliveryFailure = errors.New("failed to deliver verification email")
)
