package rwa

import "errors"

var (
	// ErrMissingKey is returned when signing is requested for a role with no key.
	ErrMissingKey = errors.New("missing signing key")
	// ErrSigning wraps failures of the signing capability.
	ErrSigning = errors.New("signing failed")
	// ErrInvalidDocument is returned for input that is not a usable credential.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidConfig is returned when the keys configuration cannot be decoded.
	ErrInvalidConfig = errors.New("invalid config")
)
