package cases

import "errors"

var (
	ErrNotFound     = errors.New("case not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("case was modified by another request")
	ErrForbidden    = errors.New("forbidden")
)
