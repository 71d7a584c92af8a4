// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package cascade

import (
	"errors"
	"fmt"
)

// ErrLockedByCatalog is returned when a direct reactivation is attempted on
// an instance detail that was forced inactive by its catalog entity. It must
// be surfaced to the user as a distinct message, never as a generic failure.
var ErrLockedByCatalog = errors.New("instance detail is locked by its catalog entity")

// ErrCatalogNotFound is returned when the catalog entity does not exist.
var ErrCatalogNotFound = errors.New("catalog entity not found")

// ErrDetailNotFound is returned when the instance detail does not exist.
var ErrDetailNotFound = errors.New("instance detail not found")

// PartialCascadeError reports a cascade batch that failed mid-way: the
// catalog flag is committed and Updated of Requested details were written
// before the failure. No rollback is attempted; re-running the same command
// is idempotent and is the documented recovery path.
type PartialCascadeError struct {
	Requested int
	Updated   int
	Err       error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("cascade updated %d of %d instance details: %v", e.Updated, e.Requested, e.Err)
}

func (e *PartialCascadeError) Unwrap() error { return e.Err }
