package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound                 = errors.New("resource not found")
	ErrInvalidInput             = errors.New("invalid input")
	ErrDuplicate                = errors.New("duplicate resource")
	ErrForbidden                = errors.New("access denied")
	ErrConflict                 = errors.New("conflict with current state")
	ErrInsufficientAvailability = errors.New("insufficient cylinder availability")
)
