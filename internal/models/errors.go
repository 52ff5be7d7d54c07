package models

import "errors"

var (
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrInvalidInput         = errors.New("invalid input data")
	ErrNotFound             = errors.New("order not found or user not authorized")
	ErrEmptyBom             = errors.New("cannot save an empty BOM")
	ErrIndexOutOfRange      = errors.New("BOM version out of range")
	ErrOrderArchived        = errors.New("order is archived")
	ErrConflict             = errors.New("order was modified concurrently")
	ErrStorage              = errors.New("storage error")
)
