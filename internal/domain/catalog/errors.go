package catalog

import "errors"

// Sentinel kinds for catalog construction failures. Callers match with errors.Is.
var (
	ErrMalformedSource = errors.New("malformed catalog source")
	ErrSourceTooDeep   = errors.New("catalog source nested too deeply")
)
