// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/veloretti/cambiodesk/internal/model"
)

// Store defines the interface for all database operations in Cambiodesk.
// This allows for multiple database backends to be implemented.
type Store interface {
	// User and role methods
	GetAllUsers(ctx context.Context) ([]model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	AddUser(ctx context.Context, username, role, extraCapabilities string) (int, error)
	ToggleUserStatus(ctx context.Context, id int) (bool, error)
	GetAllRoles(ctx context.Context) ([]model.Role, error)
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	AddRole(ctx context.Context, name, capabilities string) (int, error)
	UpdateRoleCapabilities(ctx context.Context, id int, capabilities string) error

	// Client methods
	GetAllClients(ctx context.Context) ([]model.Client, error)
	AddClient(ctx context.Context, name, document string) (int, error)

	// Currency and rate methods
	GetAllCurrencies(ctx context.Context) ([]model.Currency, error)
	AddCurrency(ctx context.Context, code, name, symbol string) (int, error)
	ToggleCurrencyStatus(ctx context.Context, id int) (bool, error)
	GetAllExchangeRates(ctx context.Context) ([]model.ExchangeRate, error)
	UpsertExchangeRate(ctx context.Context, baseCode, quoteCode string, buy, sell float64) error

	// Catalog entity methods
	GetAllCatalogEntities(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntity, error)
	SearchCatalogEntities(ctx context.Context, kind model.CatalogKind, query string) ([]model.CatalogEntity, error)
	GetCatalogEntity(ctx context.Context, id int) (*model.CatalogEntity, error)
	AddCatalogEntity(ctx context.Context, e model.CatalogEntity) (int, error)
	UpdateCatalogEntityCommissions(ctx context.Context, id int, buy, sell float64) error
	SetCatalogEntityActive(ctx context.Context, id int, active bool) error

	// Instance detail methods
	GetInstanceDetail(ctx context.Context, id string) (*model.InstanceDetail, error)
	GetAllInstanceDetails(ctx context.Context) ([]model.InstanceDetail, error)
	ListInstanceDetailsByCatalog(ctx context.Context, catalogID int) ([]model.InstanceDetail, error)
	AddInstanceDetail(ctx context.Context, d model.InstanceDetail) error
	DeleteInstanceDetail(ctx context.Context, id string) error
	SetInstanceDetailFlags(ctx context.Context, id string, active, locked bool) error

	// Instance payload methods
	GetAllInstances(ctx context.Context, kind model.CatalogKind) ([]model.Instance, error)
	GetInstanceByDetail(ctx context.Context, detailID string) (*model.Instance, error)
	AddInstance(ctx context.Context, inst model.Instance) (int, error)

	// Snapshot for list synchronization: the three lists are read inside a
	// single transaction.
	FetchOverview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error)

	// Audit log methods
	GetAllAuditLogEntries(ctx context.Context) ([]model.AuditLogEntry, error)
	LogAction(ctx context.Context, action string, details string) error

	// Backup methods
	ExportDataForBackup(ctx context.Context) (*model.BackupData, error)
	ImportDataFromBackup(ctx context.Context, backup *model.BackupData) error
}
