package core

import "errors"

// Common errors.
var (
	// ErrNotFound is returned by a BlobStore when the key holds no blob.
	ErrNotFound = errors.New("blob not found")

	// ErrIO wraps backend write and read failures other than a missing blob.
	ErrIO = errors.New("storage i/o error")

	// ErrInvalid is returned when a setting value is outside its domain.
	ErrInvalid = errors.New("invalid value")
)
