package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrMissingRequiredInput  = errors.New("missing required input")
	ErrUnreadableInput       = errors.New("unreadable input")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
