package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidClaim   = errors.New("invalid claim")
	ErrInvalidProfile = errors.New("invalid profile")
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrCatalogSource  = errors.New("catalog source unavailable")
)
