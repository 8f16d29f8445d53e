package model

import "errors"

// Sentinel errors returned by repositories and services. Handlers map these
// to HTTP status codes in one place.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmailTaken        = errors.New("email already registered")
	ErrPhoneTaken        = errors.New("phone number already registered")
	ErrOrderEmpty        = errors.New("order has no items")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)
