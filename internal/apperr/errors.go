package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidParams = errors.New("invalid parameters")
	ErrAlreadyExists = errors.New("already exists")
)
