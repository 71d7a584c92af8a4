// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// package cascade keeps the activation state of catalog entities and their
// dependent instance details consistent. Deactivating a catalog entity
// forces every active detail referencing it to inactive+locked; restoring
// the entity removes the locks but leaves the details inactive until their
// owner reactivates them explicitly.
package cascade

import (
	"context"

	"github.com/veloretti/cambiodesk/internal/model"
)

// Store is the minimal storage contract the coordinator mutates through.
// Implementations will typically delegate to the db layer.
type Store interface {
	GetCatalogEntity(ctx context.Context, id int) (*model.CatalogEntity, error)
	SetCatalogEntityActive(ctx context.Context, id int, active bool) error
	ListInstanceDetailsByCatalog(ctx context.Context, catalogID int) ([]model.InstanceDetail, error)
	GetInstanceDetail(ctx context.Context, id string) (*model.InstanceDetail, error)
	SetInstanceDetailFlags(ctx context.Context, id string, active, locked bool) error
}

// PairState is the lifecycle state of one (catalog entity, instance detail)
// pair.
type PairState int

const (
	// ActiveFree: catalog active, detail active.
	ActiveFree PairState = iota
	// InactiveFree: catalog active, detail inactive by owner choice.
	InactiveFree
	// LockedInactive: catalog inactive, detail forced inactive.
	LockedInactive
)

// PairStateOf derives the pair state from the detail flags. The catalog
// flag adds no information: a set lock implies the catalog is inactive.
func PairStateOf(d model.InstanceDetail) PairState {
	switch {
	case d.LockedByCatalog:
		return LockedInactive
	case d.IsActive:
		return ActiveFree
	default:
		return InactiveFree
	}
}

// Coordinator drives catalog/detail activation transitions against a Store.
type Coordinator struct {
	store Store
}

// New returns a Coordinator backed by the given store.
func New(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// DeactivateCatalog turns the catalog entity off and forces every detail
// that is still active to inactive+locked. Details the owner had already
// deactivated are left unlocked: they were not forced.
//
// The catalog flag is committed before any detail write, so a concurrent
// reader never observes an active catalog with a locked detail. The detail
// writes are independent of each other and are not rolled back on failure;
// a mid-batch error yields a PartialCascadeError and re-running the command
// finishes the job (already-locked details are no-ops).
//
// Returns the number of details whose state changed, for user notification.
func (c *Coordinator) DeactivateCatalog(ctx context.Context, id int) (int, error) {
	ent, err := c.store.GetCatalogEntity(ctx, id)
	if err != nil {
		return 0, err
	}
	if ent == nil {
		return 0, ErrCatalogNotFound
	}

	if ent.IsActive {
		if err := c.store.SetCatalogEntityActive(ctx, id, false); err != nil {
			return 0, err
		}
	}

	details, err := c.store.ListInstanceDetailsByCatalog(ctx, id)
	if err != nil {
		return 0, err
	}

	requested := 0
	for _, d := range details {
		if d.IsActive {
			requested++
		}
	}

	updated := 0
	for _, d := range details {
		if !d.IsActive {
			continue
		}
		if err := c.store.SetInstanceDetailFlags(ctx, d.ID, false, true); err != nil {
			return updated, &PartialCascadeError{Requested: requested, Updated: updated, Err: err}
		}
		updated++
	}
	return updated, nil
}

// ReactivateCatalog turns the catalog entity back on and clears the lock on
// every detail it had forced inactive. The details stay inactive: the owner
// must reactivate each one explicitly.
//
// Returns the number of details whose state changed.
func (c *Coordinator) ReactivateCatalog(ctx context.Context, id int) (int, error) {
	ent, err := c.store.GetCatalogEntity(ctx, id)
	if err != nil {
		return 0, err
	}
	if ent == nil {
		return 0, ErrCatalogNotFound
	}

	if !ent.IsActive {
		if err := c.store.SetCatalogEntityActive(ctx, id, true); err != nil {
			return 0, err
		}
	}

	details, err := c.store.ListInstanceDetailsByCatalog(ctx, id)
	if err != nil {
		return 0, err
	}

	requested := 0
	for _, d := range details {
		if d.LockedByCatalog {
			requested++
		}
	}

	updated := 0
	for _, d := range details {
		if !d.LockedByCatalog {
			continue
		}
		if err := c.store.SetInstanceDetailFlags(ctx, d.ID, false, false); err != nil {
			return updated, &PartialCascadeError{Requested: requested, Updated: updated, Err: err}
		}
		updated++
	}
	return updated, nil
}

// ToggleInstance flips the activation of a detail by direct user action.
// A locked detail is rejected with ErrLockedByCatalog and left unchanged;
// only restoring the catalog entity can clear the lock.
//
// Returns the new activation state.
func (c *Coordinator) ToggleInstance(ctx context.Context, detailID string) (bool, error) {
	d, err := c.store.GetInstanceDetail(ctx, detailID)
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, ErrDetailNotFound
	}
	if d.LockedByCatalog {
		return false, ErrLockedByCatalog
	}
	next := !d.IsActive
	if err := c.store.SetInstanceDetailFlags(ctx, d.ID, next, false); err != nil {
		return false, err
	}
	return next, nil
}
