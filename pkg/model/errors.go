package model

import "errors"

// Sentinel errors for the delegation and pool model.
var (
	ErrDuplicateDelegation = errors.New("duplicate delegation")
	ErrTypeMismatch        = errors.New("delegation type mismatch")
	ErrInvalidDelegation   = errors.New("invalid delegation")
	ErrInvalidPool         = errors.New("invalid pool")
	ErrDuplicatePool       = errors.New("duplicate pool")
)
