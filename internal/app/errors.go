package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNoCatalog    = errors.New("no catalog source configured")
	ErrCatalogBuild = errors.New("catalog index build failed")
	ErrUnknownDiver = errors.New("diver not found")
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
)
