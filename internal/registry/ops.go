// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// package registry is the operation facade the console surfaces call into.
// Every mutating operation is capability-gated, audited, and followed by a
// list refresh so views never rely on client-side guesses about what a
// mutation did.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/cascade"
	"github.com/veloretti/cambiodesk/internal/db"
	"github.com/veloretti/cambiodesk/internal/listsync"
	"github.com/veloretti/cambiodesk/internal/logging"
	"github.com/veloretti/cambiodesk/internal/model"
)

// ErrCatalogInactive rejects creating an instance against a deactivated
// catalog entry.
var ErrCatalogInactive = errors.New("catalog entry is inactive")

// ErrUnknownRole rejects creating a user with a role that does not exist.
var ErrUnknownRole = errors.New("unknown role")

// ErrCreateRolledBack reports that a failed instance create was compensated:
// the pending detail row was deleted again and nothing was registered.
var ErrCreateRolledBack = errors.New("instance create rolled back")

// CapSource yields the current capability snapshot. state.Session satisfies
// this.
type CapSource interface {
	Capabilities() access.CapabilitySet
}

// Service wires the store, the cascade coordinator, and the optional list
// synchronizer behind capability checks.
type Service struct {
	store db.Store
	caps  CapSource
	coord *cascade.Coordinator
	sync  *listsync.Synchronizer
}

// NewService builds a Service over the given store and capability source.
func NewService(store db.Store, caps CapSource) *Service {
	return &Service{
		store: store,
		caps:  caps,
		coord: cascade.New(store),
	}
}

// SetSynchronizer attaches a list synchronizer that gets refreshed after
// every mutation.
func (s *Service) SetSynchronizer(sync *listsync.Synchronizer) {
	s.sync = sync
}

// Coordinator exposes the cascade coordinator for callers that need pair
// state derivation.
func (s *Service) Coordinator() *cascade.Coordinator { return s.coord }

func (s *Service) refresh(ctx context.Context) {
	if s.sync == nil {
		return
	}
	if err := s.sync.Refresh(ctx); err != nil {
		logging.Debugf("registry: post-mutation refresh failed: %v", err)
	}
}

func (s *Service) audit(ctx context.Context, action, details string) {
	if err := s.store.LogAction(ctx, action, details); err != nil {
		logging.Debugf("registry: audit write failed: %v", err)
	}
}

// --- Catalog operations ---

// ListCatalog returns catalog entries for one kind, optionally filtered by
// a search query.
func (s *Service) ListCatalog(ctx context.Context, kind model.CatalogKind, filter string) ([]model.CatalogEntity, error) {
	if err := access.Require(s.caps.Capabilities(), reqCatalogView); err != nil {
		return nil, err
	}
	if filter != "" {
		return s.store.SearchCatalogEntities(ctx, kind, filter)
	}
	return s.store.GetAllCatalogEntities(ctx, kind)
}

// CreateCatalogEntity adds a catalog entry. New entries start active unless
// the caller says otherwise.
func (s *Service) CreateCatalogEntity(ctx context.Context, e model.CatalogEntity) (int, error) {
	if err := access.Require(s.caps.Capabilities(), reqCatalogEdit(e.Kind)); err != nil {
		return 0, err
	}
	if !e.Kind.Valid() {
		return 0, fmt.Errorf("invalid catalog kind: %q", e.Kind)
	}
	id, err := s.store.AddCatalogEntity(ctx, e)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, "ADD_CATALOG_ENTITY", e.String())
	s.refresh(ctx)
	return id, nil
}

// UpdateCatalogCommissions updates the default commissions on an entry.
func (s *Service) UpdateCatalogCommissions(ctx context.Context, id int, buy, sell float64) error {
	ent, err := s.store.GetCatalogEntity(ctx, id)
	if err != nil {
		return err
	}
	if ent == nil {
		return cascade.ErrCatalogNotFound
	}
	if err := access.Require(s.caps.Capabilities(), reqCatalogEdit(ent.Kind)); err != nil {
		return err
	}
	if err := s.store.UpdateCatalogEntityCommissions(ctx, id, buy, sell); err != nil {
		return err
	}
	s.audit(ctx, "UPDATE_CATALOG_COMMISSIONS", fmt.Sprintf("%s buy=%.4f sell=%.4f", ent, buy, sell))
	s.refresh(ctx)
	return nil
}

// DeactivateCatalogEntity turns an entry off and cascades the lock onto its
// active details. The returned count is how many details changed state; on
// a partial failure the error carries updated/requested counts and the
// operation can simply be re-run.
func (s *Service) DeactivateCatalogEntity(ctx context.Context, id int) (int, error) {
	ent, err := s.store.GetCatalogEntity(ctx, id)
	if err != nil {
		return 0, err
	}
	if ent == nil {
		return 0, cascade.ErrCatalogNotFound
	}
	if err := access.RequireComposite(s.caps.Capabilities(), reqCatalogToggle(ent.Kind)); err != nil {
		return 0, err
	}
	n, err := s.coord.DeactivateCatalog(ctx, id)
	// The catalog flag may have committed even when the detail batch failed,
	// so audit both outcomes.
	s.audit(ctx, "DEACTIVATE_CATALOG", fmt.Sprintf("%s locked=%d err=%v", ent, n, err))
	s.refresh(ctx)
	return n, err
}

// ReactivateCatalogEntity turns an entry back on and clears the cascade
// locks. Details stay inactive until their owner reactivates them.
func (s *Service) ReactivateCatalogEntity(ctx context.Context, id int) (int, error) {
	ent, err := s.store.GetCatalogEntity(ctx, id)
	if err != nil {
		return 0, err
	}
	if ent == nil {
		return 0, cascade.ErrCatalogNotFound
	}
	if err := access.RequireComposite(s.caps.Capabilities(), reqCatalogToggle(ent.Kind)); err != nil {
		return 0, err
	}
	n, err := s.coord.ReactivateCatalog(ctx, id)
	s.audit(ctx, "REACTIVATE_CATALOG", fmt.Sprintf("%s unlocked=%d err=%v", ent, n, err))
	s.refresh(ctx)
	return n, err
}

// --- Instance operations ---

// CreateInstanceParams carries the payload for the two-step instance
// creation protocol.
type CreateInstanceParams struct {
	Owner        model.OwnerRef
	CatalogID    int
	Holder       string
	Reference    string
	CurrencyCode string
}

// CreateInstance runs the two-step creation protocol: insert the detail row
// first, then the payload row referencing it. A payload failure triggers a
// compensating delete of the orphan detail; if that delete fails too, the
// orphan id is logged and returned for manual cleanup.
func (s *Service) CreateInstance(ctx context.Context, p CreateInstanceParams) (string, error) {
	if err := access.Require(s.caps.Capabilities(), reqInstanceCreate); err != nil {
		return "", err
	}
	ent, err := s.store.GetCatalogEntity(ctx, p.CatalogID)
	if err != nil {
		return "", err
	}
	if ent == nil {
		return "", cascade.ErrCatalogNotFound
	}
	if !ent.IsActive {
		return "", ErrCatalogInactive
	}

	detail := model.InstanceDetail{
		ID:              uuid.NewString(),
		Owner:           p.Owner,
		CatalogEntityID: p.CatalogID,
		IsActive:        true,
	}
	if err := s.store.AddInstanceDetail(ctx, detail); err != nil {
		return "", err
	}

	inst := model.Instance{
		DetailID:     detail.ID,
		Kind:         ent.Kind,
		Holder:       p.Holder,
		Reference:    p.Reference,
		CurrencyCode: p.CurrencyCode,
	}
	if _, err := s.store.AddInstance(ctx, inst); err != nil {
		if delErr := s.store.DeleteInstanceDetail(ctx, detail.ID); delErr != nil {
			logging.Errorf("registry: orphan detail %s left behind after failed create: %v", detail.ID, delErr)
			return "", fmt.Errorf("instance create failed and compensation left orphan detail %s: %w", detail.ID, err)
		}
		return "", fmt.Errorf("%w: %w", ErrCreateRolledBack, err)
	}

	s.audit(ctx, "ADD_INSTANCE", fmt.Sprintf("%s %s owner=%s", ent, inst.Reference, p.Owner))
	s.refresh(ctx)
	return detail.ID, nil
}

// ToggleInstance flips a detail's activation by direct user action. Locked
// details are rejected with cascade.ErrLockedByCatalog.
func (s *Service) ToggleInstance(ctx context.Context, detailID string) (bool, error) {
	if err := access.Require(s.caps.Capabilities(), reqInstanceToggle); err != nil {
		return false, err
	}
	active, err := s.coord.ToggleInstance(ctx, detailID)
	if err != nil {
		return false, err
	}
	s.audit(ctx, "TOGGLE_INSTANCE", fmt.Sprintf("detail=%s active=%t", detailID, active))
	s.refresh(ctx)
	return active, nil
}

// Overview returns the consistent catalog/detail/instance triple for a view.
func (s *Service) Overview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error) {
	if err := access.Require(s.caps.Capabilities(), reqCatalogView); err != nil {
		return nil, err
	}
	return s.store.FetchOverview(ctx, kind, filter)
}

// --- User and role operations ---

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := access.Require(s.caps.Capabilities(), reqUsersManage); err != nil {
		return nil, err
	}
	return s.store.GetAllUsers(ctx)
}

// CreateUser adds a console user bound to an existing role.
func (s *Service) CreateUser(ctx context.Context, username, role, extraCaps string) (int, error) {
	if err := access.Require(s.caps.Capabilities(), reqUsersManage); err != nil {
		return 0, err
	}
	r, err := s.store.GetRoleByName(ctx, role)
	if err != nil {
		return 0, err
	}
	if r == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	id, err := s.store.AddUser(ctx, username, role, extraCaps)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, "ADD_USER", fmt.Sprintf("user: %s role: %s", username, role))
	return id, nil
}

// ToggleUser flips a user's active flag and returns the new state.
func (s *Service) ToggleUser(ctx context.Context, id int) (bool, error) {
	if err := access.Require(s.caps.Capabilities(), reqUsersManage); err != nil {
		return false, err
	}
	active, err := s.store.ToggleUserStatus(ctx, id)
	if err != nil {
		return false, err
	}
	s.audit(ctx, "TOGGLE_USER", fmt.Sprintf("id: %d active: %t", id, active))
	return active, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]model.Role, error) {
	if err := access.Require(s.caps.Capabilities(), reqUsersManage); err != nil {
		return nil, err
	}
	return s.store.GetAllRoles(ctx)
}

func (s *Service) CreateRole(ctx context.Context, name, capabilities string) (int, error) {
	if err := access.Require(s.caps.Capabilities(), reqUsersManage); err != nil {
		return 0, err
	}
	id, err := s.store.AddRole(ctx, name, capabilities)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, "ADD_ROLE", fmt.Sprintf("role: %s", name))
	return id, nil
}

func (s *Service) UpdateRoleCapabilities(ctx context.Context, id int, capabilities string) error {
	if err := access.Require(s.caps.Capabilities(), reqUsersManage); err != nil {
		return err
	}
	if err := s.store.UpdateRoleCapabilities(ctx, id, capabilities); err != nil {
		return err
	}
	s.audit(ctx, "UPDATE_ROLE", fmt.Sprintf("id: %d", id))
	return nil
}

// --- Client operations ---

func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	if err := access.Require(s.caps.Capabilities(), reqClientsManage); err != nil {
		return nil, err
	}
	return s.store.GetAllClients(ctx)
}

func (s *Service) CreateClient(ctx context.Context, name, document string) (int, error) {
	if err := access.Require(s.caps.Capabilities(), reqClientsManage); err != nil {
		return 0, err
	}
	id, err := s.store.AddClient(ctx, name, document)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, "ADD_CLIENT", fmt.Sprintf("client: %s", name))
	return id, nil
}

// --- Currency and rate operations ---

func (s *Service) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	if err := access.Require(s.caps.Capabilities(), reqCurrenciesManage); err != nil {
		return nil, err
	}
	return s.store.GetAllCurrencies(ctx)
}

func (s *Service) CreateCurrency(ctx context.Context, code, name, symbol string) (int, error) {
	if err := access.Require(s.caps.Capabilities(), reqCurrenciesManage); err != nil {
		return 0, err
	}
	id, err := s.store.AddCurrency(ctx, code, name, symbol)
	if err != nil {
		return 0, err
	}
	s.audit(ctx, "ADD_CURRENCY", code)
	return id, nil
}

func (s *Service) ToggleCurrency(ctx context.Context, id int) (bool, error) {
	if err := access.Require(s.caps.Capabilities(), reqCurrenciesManage); err != nil {
		return false, err
	}
	active, err := s.store.ToggleCurrencyStatus(ctx, id)
	if err != nil {
		return false, err
	}
	s.audit(ctx, "TOGGLE_CURRENCY", fmt.Sprintf("id: %d active: %t", id, active))
	return active, nil
}

func (s *Service) ListRates(ctx context.Context) ([]model.ExchangeRate, error) {
	if err := access.Require(s.caps.Capabilities(), reqRatesManage); err != nil {
		return nil, err
	}
	return s.store.GetAllExchangeRates(ctx)
}

// PostRate records new buy/sell values for a currency pair.
func (s *Service) PostRate(ctx context.Context, baseCode, quoteCode string, buy, sell float64) error {
	if err := access.Require(s.caps.Capabilities(), reqRatesManage); err != nil {
		return err
	}
	if err := s.store.UpsertExchangeRate(ctx, baseCode, quoteCode, buy, sell); err != nil {
		return err
	}
	s.audit(ctx, "POST_RATE", fmt.Sprintf("%s/%s buy=%.4f sell=%.4f", baseCode, quoteCode, buy, sell))
	return nil
}

// --- Audit ---

func (s *Service) ListAuditLog(ctx context.Context) ([]model.AuditLogEntry, error) {
	if err := access.Require(s.caps.Capabilities(), reqAuditView); err != nil {
		return nil, err
	}
	return s.store.GetAllAuditLogEntries(ctx)
}
