package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrSelfLoop           = errors.New("self-referencing relation")
	ErrPersonMissing      = errors.New("person does not exist")
	ErrInvalidID          = errors.New("invalid ID")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRenderFailed       = errors.New("render pipeline failed")
)
