package models

import "errors"

var (
	// ErrNotFound is returned when a requested address does not exist.
	ErrNotFound = errors.New("address not found")

	// ErrValidation is returned when a request violates a business rule,
	// e.g. a malformed country code on create.
	ErrValidation = errors.New("validation failed")
)
