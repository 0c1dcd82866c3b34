package domain

import "errors"

var (
	ErrInvalidValue   = errors.New("value must be a non-negative integer")
	ErrUnknownCounter = errors.New("unknown counter")
	ErrNotPrivileged  = errors.New("actor is not privileged")
	ErrMalformedRule  = errors.New("malformed rule definition")
)
