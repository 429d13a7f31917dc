package util

import "errors"

// Error taxonomy of the attempt engine. Controllers map these onto HTTP
// statuses in response.go; services never return raw gorm errors upward.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("operation not valid for current attempt state")
	ErrTimeExpired         = errors.New("time limit exceeded")
	ErrNoAttemptsRemaining = errors.New("no attempts remaining")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("concurrent update conflict")

	ErrQuizNotAvailable   = errors.New("quiz is not available")
	ErrQuizNotYetOpen     = errors.New("quiz is not yet available")
	ErrQuizClosed         = errors.New("quiz availability has ended")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
