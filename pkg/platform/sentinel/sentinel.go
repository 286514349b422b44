package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and caches return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: no record for the key
//   - ErrConflict: a record with the same unique key already exists
//   - ErrUnavailable: the backing service cannot be reached
//
// Validation failures are not sentinels; they come from pkg/domain and
// pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
