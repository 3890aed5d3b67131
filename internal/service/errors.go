package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrEmailNotVerified   = errors.New("email not verified, confirmation email sent")
	ErrEmailNotFound      = errors.New("email not found")
	ErrEmailInUse         = errors.New("email already in use")
	ErrSessionExpired     = errors.New("session expired")

	// ErrForbidden is returned when the caller's role does not allow the change
	ErrForbidden = errors.New("insufficient permissions")

	// ErrInvalidInput wraps every business validation failure so handlers can answer 400
	ErrInvalidInput = errors.New("invalid input")
)
