// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the dialect store implementations. All three engines
// share the same Bun adapter code; the per-dialect types exist so engine
// specific overrides have a natural home.
package db

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/veloretti/cambiodesk/internal/model"
)

// bunStore implements Store on top of a *bun.DB. The dialect stores embed it.
type bunStore struct {
	bun *bun.DB
}

// BunDB exposes the underlying Bun handle for callers that need raw access
// (maintenance, tests).
func (s *bunStore) BunDB() *bun.DB { return s.bun }

func (s *bunStore) GetAllUsers(ctx context.Context) ([]model.User, error) {
	return GetAllUsersBun(ctx, s.bun)
}

func (s *bunStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return GetUserByUsernameBun(ctx, s.bun, username)
}

func (s *bunStore) AddUser(ctx context.Context, username, role, extraCapabilities string) (int, error) {
	return AddUserBun(ctx, s.bun, username, role, extraCapabilities)
}

func (s *bunStore) ToggleUserStatus(ctx context.Context, id int) (bool, error) {
	return ToggleUserStatusBun(ctx, s.bun, id)
}

func (s *bunStore) GetAllRoles(ctx context.Context) ([]model.Role, error) {
	return GetAllRolesBun(ctx, s.bun)
}

func (s *bunStore) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	return GetRoleByNameBun(ctx, s.bun, name)
}

func (s *bunStore) AddRole(ctx context.Context, name, capabilities string) (int, error) {
	return AddRoleBun(ctx, s.bun, name, capabilities)
}

func (s *bunStore) UpdateRoleCapabilities(ctx context.Context, id int, capabilities string) error {
	return UpdateRoleCapabilitiesBun(ctx, s.bun, id, capabilities)
}

func (s *bunStore) GetAllClients(ctx context.Context) ([]model.Client, error) {
	return GetAllClientsBun(ctx, s.bun)
}

func (s *bunStore) AddClient(ctx context.Context, name, document string) (int, error) {
	return AddClientBun(ctx, s.bun, name, document)
}

func (s *bunStore) GetAllCurrencies(ctx context.Context) ([]model.Currency, error) {
	return GetAllCurrenciesBun(ctx, s.bun)
}

func (s *bunStore) AddCurrency(ctx context.Context, code, name, symbol string) (int, error) {
	return AddCurrencyBun(ctx, s.bun, code, name, symbol)
}

func (s *bunStore) ToggleCurrencyStatus(ctx context.Context, id int) (bool, error) {
	return ToggleCurrencyStatusBun(ctx, s.bun, id)
}

func (s *bunStore) GetAllExchangeRates(ctx context.Context) ([]model.ExchangeRate, error) {
	return GetAllExchangeRatesBun(ctx, s.bun)
}

func (s *bunStore) UpsertExchangeRate(ctx context.Context, baseCode, quoteCode string, buy, sell float64) error {
	return UpsertExchangeRateBun(ctx, s.bun, baseCode, quoteCode, buy, sell)
}

func (s *bunStore) GetAllCatalogEntities(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error) {
	return GetAllCatalogEntitiesBun(ctx, s.bun, kind)
}

func (s *bunStore) SearchCatalogEntities(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogEntity, error) {
	return SearchCatalogEntitiesBun(ctx, s.bun, kind, query)
}

func (s *bunStore) GetCatalogEntity(ctx context.Context, id int) (*model.CatalogEntity, error) {
	return GetCatalogEntityBun(ctx, s.bun, id)
}

func (s *bunStore) AddCatalogEntity(ctx context.Context, e model.CatalogEntity) (int, error) {
	return AddCatalogEntityBun(ctx, s.bun, e)
}

func (s *bunStore) UpdateCatalogEntityCommissions(ctx context.Context, id int, buy, sell float64) error {
	return UpdateCatalogEntityCommissionsBun(ctx, s.bun, id, buy, sell)
}

func (s *bunStore) SetCatalogEntityActive(ctx context.Context, id int, active bool) error {
	return SetCatalogEntityActiveBun(ctx, s.bun, id, active)
}

func (s *bunStore) GetInstanceDetail(ctx context.Context, id string) (*model.InstanceDetail, error) {
	return GetInstanceDetailBun(ctx, s.bun, id)
}

func (s *bunStore) GetAllInstanceDetails(ctx context.Context) ([]model.InstanceDetail, error) {
	return GetAllInstanceDetailsBun(ctx, s.bun)
}

func (s *bunStore) ListInstanceDetailsByCatalog(ctx context.Context, catalogID int) ([]model.InstanceDetail, error) {
	return ListInstanceDetailsByCatalogBun(ctx, s.bun, catalogID)
}

func (s *bunStore) AddInstanceDetail(ctx context.Context, d model.InstanceDetail) error {
	return AddInstanceDetailBun(ctx, s.bun, d)
}

func (s *bunStore) DeleteInstanceDetail(ctx context.Context, id string) error {
	return DeleteInstanceDetailBun(ctx, s.bun, id)
}

func (s *bunStore) SetInstanceDetailFlags(ctx context.Context, id string, active, locked bool) error {
	return SetInstanceDetailFlagsBun(ctx, s.bun, id, active, locked)
}

func (s *bunStore) GetAllInstances(ctx context.Context, kind model.CatalogKind) ([]model.Instance, error) {
	return GetAllInstancesBun(ctx, s.bun, kind)
}

func (s *bunStore) GetInstanceByDetail(ctx context.Context, detailID string) (*model.Instance, error) {
	return GetInstanceByDetailBun(ctx, s.bun, detailID)
}

func (s *bunStore) AddInstance(ctx context.Context, inst model.Instance) (int, error) {
	return AddInstanceBun(ctx, s.bun, inst)
}

func (s *bunStore) FetchOverview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error) {
	return FetchOverviewBun(ctx, s.bun, kind, filter)
}

func (s *bunStore) GetAllAuditLogEntries(ctx context.Context) ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(ctx, s.bun)
}

func (s *bunStore) LogAction(ctx context.Context, action string, details string) error {
	return LogActionBun(ctx, s.bun, action, details)
}

func (s *bunStore) ExportDataForBackup(ctx context.Context) (*model.BackupData, error) {
	return ExportDataForBackupBun(ctx, s.bun)
}

func (s *bunStore) ImportDataFromBackup(ctx context.Context, backup *model.BackupData) error {
	return ImportDataFromBackupBun(ctx, s.bun, backup)
}

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	bunStore
}

// PostgresStore is the PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	bunStore
}

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct {
	bunStore
}
