package messages

import "errors"

var (
	ErrNotFound     = errors.New("message not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)
