package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the contract service translates them into domain errors.
//
//   - ErrNotFound: no record stored under the key
//   - ErrConflict: the write would overwrite state that must be written once
//   - ErrUnavailable: the backend could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
