package domain

import "errors"

// Sentinel errors shared across packages. Match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidContent = errors.New("invalid content")
	ErrEmptyBatch     = errors.New("no cards to study")
)
