package account

import "errors"

// Failure kinds returned by Service. Storage detail never crosses this
// boundary; it is logged instead.
var (
	ErrAlreadyExists      = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
)
