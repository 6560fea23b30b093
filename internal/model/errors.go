package model

import "errors"

// Error kinds surfaced to API callers.
const (
	KindValidation      = "VALIDATION_ERROR"
	KindNotFound        = "NOT_FOUND"
	KindSerialUsed      = "SERIAL_ALREADY_USED"
	KindDuplicateSerial = "DUPLICATE_SERIAL"
	KindModelMismatch   = "MODEL_MISMATCH"
	KindNoTickets       = "NO_TICKETS"
	KindConflict        = "TRANSACTION_CONFLICT"
	KindExists          = "ALREADY_EXISTS"
	KindInternal        = "INTERNAL"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrSerialUsed      = errors.New("serial already used")
	ErrDuplicateSerial = errors.New("serial already registered")
	ErrModelMismatch   = errors.New("product model does not match serial")
	ErrNoTickets       = errors.New("no tickets in the pool")
	ErrConflict        = errors.New("transaction conflict")
	ErrExists          = errors.New("already exists")
)

// Kind returns the kind of a domain error. Anything unrecognised is internal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrSerialUsed):
		return KindSerialUsed
	case errors.Is(err, ErrDuplicateSerial):
		return KindDuplicateSerial
	case errors.Is(err, ErrModelMismatch):
		return KindModelMismatch
	case errors.Is(err, ErrNoTickets):
		return KindNoTickets
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrExists):
		return KindExists
	default:
		return KindInternal
	}
}
