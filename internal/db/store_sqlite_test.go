// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/veloretti/cambiodesk/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStoreFromDSN("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestSqliteStore_UsersAndRoles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.AddRole(ctx, "cashier", "instance.toggle_detail"); err != nil {
		t.Fatalf("add role: %v", err)
	}
	if _, err := store.AddRole(ctx, "cashier", ""); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate role name must map to ErrDuplicate, got %v", err)
	}

	id, err := store.AddUser(ctx, "maria", "cashier", "rate.manage_rates")
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	u, err := store.GetUserByUsername(ctx, "maria")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u == nil || u.ID != id || u.Role != "cashier" || u.ExtraCapabilities != "rate.manage_rates" {
		t.Fatalf("unexpected user row: %+v", u)
	}
	if !u.IsActive {
		t.Fatalf("new users must start active")
	}

	active, err := store.ToggleUserStatus(ctx, id)
	if err != nil {
		t.Fatalf("toggle user: %v", err)
	}
	if active {
		t.Fatalf("toggle must deactivate an active user")
	}

	if missing, err := store.GetUserByUsername(ctx, "ghost"); err != nil || missing != nil {
		t.Fatalf("missing user must be (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestSqliteStore_CatalogAndDetails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	catID, err := store.AddCatalogEntity(ctx, model.CatalogEntity{
		Kind: model.KindBank, Name: "Acme", CommissionBuy: 1.5, CommissionSell: 2.0, IsActive: true,
	})
	if err != nil {
		t.Fatalf("add catalog entity: %v", err)
	}
	if _, err := store.AddCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindBank, Name: "Acme", IsActive: true}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate kind+name must map to ErrDuplicate, got %v", err)
	}
	// Same name under a different kind is a distinct entry.
	if _, err := store.AddCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindWallet, Name: "Acme", IsActive: true}); err != nil {
		t.Fatalf("same name, different kind: %v", err)
	}

	detail := model.InstanceDetail{
		ID:              "d-1",
		Owner:           model.ClientOwner(7),
		CatalogEntityID: catID,
		IsActive:        true,
	}
	if err := store.AddInstanceDetail(ctx, detail); err != nil {
		t.Fatalf("add detail: %v", err)
	}
	if _, err := store.AddInstance(ctx, model.Instance{
		DetailID: "d-1", Kind: model.KindBank, Holder: "Maria Perez", Reference: "AR-001", CurrencyCode: "USD",
	}); err != nil {
		t.Fatalf("add instance: %v", err)
	}

	if err := store.SetInstanceDetailFlags(ctx, "d-1", false, true); err != nil {
		t.Fatalf("set flags: %v", err)
	}
	got, err := store.GetInstanceDetail(ctx, "d-1")
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if got == nil || got.IsActive || !got.LockedByCatalog {
		t.Fatalf("flags not persisted: %+v", got)
	}
	if got.Owner.ClientID != 7 {
		t.Fatalf("owner not persisted: %+v", got.Owner)
	}

	byCatalog, err := store.ListInstanceDetailsByCatalog(ctx, catID)
	if err != nil {
		t.Fatalf("list by catalog: %v", err)
	}
	if len(byCatalog) != 1 || byCatalog[0].ID != "d-1" {
		t.Fatalf("unexpected details for catalog %d: %+v", catID, byCatalog)
	}

	ov, err := store.FetchOverview(ctx, model.KindBank, "")
	if err != nil {
		t.Fatalf("fetch overview: %v", err)
	}
	if len(ov.Catalog) != 1 || len(ov.Details) != 1 || len(ov.Instances) != 1 {
		t.Fatalf("overview sizes = %d/%d/%d, want 1/1/1", len(ov.Catalog), len(ov.Details), len(ov.Instances))
	}
}

func TestSqliteStore_SearchCatalogEntities(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, name := range []string{"Acme Bank", "Banco Norte", "Norte Cambio"} {
		if _, err := store.AddCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindBank, Name: name, IsActive: true}); err != nil {
			t.Fatalf("seed %q: %v", name, err)
		}
	}

	hits, err := store.SearchCatalogEntities(ctx, model.KindBank, "norte")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("search norte returned %d rows, want 2", len(hits))
	}

	hits, err = store.SearchCatalogEntities(ctx, model.KindBank, "norte cambio")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "Norte Cambio" {
		t.Fatalf("multi-token search returned %+v", hits)
	}
}

func TestSqliteStore_RatesAndAudit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertExchangeRate(ctx, "USD", "ARS", 1000, 1040); err != nil {
		t.Fatalf("insert rate: %v", err)
	}
	if err := store.UpsertExchangeRate(ctx, "USD", "ARS", 1010, 1055); err != nil {
		t.Fatalf("update rate: %v", err)
	}
	rates, err := store.GetAllExchangeRates(ctx)
	if err != nil {
		t.Fatalf("list rates: %v", err)
	}
	if len(rates) != 1 || rates[0].Buy != 1010 || rates[0].Sell != 1055 {
		t.Fatalf("upsert did not replace the pair: %+v", rates)
	}

	if err := store.LogAction(ctx, "POST_RATE", "USD/ARS"); err != nil {
		t.Fatalf("log action: %v", err)
	}
	entries, err := store.GetAllAuditLogEntries(ctx)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "POST_RATE" {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
}

func TestSqliteStore_BackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	if _, err := src.AddRole(ctx, "admin", "admin.full_access"); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	if _, err := src.AddCurrency(ctx, "USD", "US Dollar", "$"); err != nil {
		t.Fatalf("seed currency: %v", err)
	}
	catID, err := src.AddCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindWallet, Name: "PayWall", IsActive: true})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := src.AddInstanceDetail(ctx, model.InstanceDetail{ID: "d-9", Owner: model.HouseOwner(), CatalogEntityID: catID, IsActive: true}); err != nil {
		t.Fatalf("seed detail: %v", err)
	}

	backup, err := src.ExportDataForBackup(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if backup.SchemaVersion != 1 {
		t.Fatalf("schema version = %d, want 1", backup.SchemaVersion)
	}

	dst := newTestStore(t)
	if err := dst.ImportDataFromBackup(ctx, backup); err != nil {
		t.Fatalf("import: %v", err)
	}
	d, err := dst.GetInstanceDetail(ctx, "d-9")
	if err != nil {
		t.Fatalf("get imported detail: %v", err)
	}
	if d == nil || d.CatalogEntityID != catID || !d.Owner.IsHouse() {
		t.Fatalf("imported detail mismatch: %+v", d)
	}
	cats, err := dst.GetAllCatalogEntities(ctx, model.KindWallet)
	if err != nil {
		t.Fatalf("list imported catalog: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "PayWall" {
		t.Fatalf("imported catalog mismatch: %+v", cats)
	}
}
