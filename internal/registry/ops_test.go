package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/cascade"
	"github.com/veloretti/cambiodesk/internal/listsync"
	"github.com/veloretti/cambiodesk/internal/model"
	"github.com/veloretti/cambiodesk/internal/testutil"
)

type fixedCaps struct {
	set access.CapabilitySet
}

func (f fixedCaps) Capabilities() access.CapabilitySet { return f.set }

func adminCaps() fixedCaps {
	return fixedCaps{set: access.NewCapabilitySet(CapAdminFull, CapCatalogToggle)}
}

func seedBank(t *testing.T, store *testutil.MemStore, active bool) int {
	t.Helper()
	id, err := store.AddCatalogEntity(context.Background(), model.CatalogEntity{
		Kind: model.KindBank, Name: "Acme", IsActive: active,
	})
	if err != nil {
		t.Fatalf("seed bank: %v", err)
	}
	return id
}

func TestCreateInstance_TwoStepProtocol(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())
	catID := seedBank(t, store, true)

	detailID, err := svc.CreateInstance(ctx, CreateInstanceParams{
		Owner:        model.HouseOwner(),
		CatalogID:    catID,
		Holder:       "Casa Central",
		Reference:    "001-4432",
		CurrencyCode: "USD",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	d, _ := store.GetInstanceDetail(ctx, detailID)
	if d == nil || !d.IsActive || d.LockedByCatalog {
		t.Fatalf("detail must exist active and unlocked, got %+v", d)
	}
	inst, _ := store.GetInstanceByDetail(ctx, detailID)
	if inst == nil || inst.Holder != "Casa Central" || inst.Kind != model.KindBank {
		t.Fatalf("payload not bound to detail: %+v", inst)
	}
}

func TestCreateInstance_RejectsInactiveCatalog(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())
	catID := seedBank(t, store, false)

	_, err := svc.CreateInstance(ctx, CreateInstanceParams{CatalogID: catID, Holder: "x", Reference: "y"})
	if !errors.Is(err, ErrCatalogInactive) {
		t.Fatalf("expected ErrCatalogInactive, got %v", err)
	}
	details, _ := store.GetAllInstanceDetails(ctx)
	if len(details) != 0 {
		t.Fatalf("no detail row may be written for a rejected create")
	}
}

// failingInstanceStore makes the payload insert fail so the compensating
// delete path runs.
type failingInstanceStore struct {
	*testutil.MemStore
}

func (f *failingInstanceStore) AddInstance(ctx context.Context, inst model.Instance) (int, error) {
	return 0, fmt.Errorf("payload insert refused")
}

func TestCreateInstance_CompensatesOrphanDetail(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemStore()
	store := &failingInstanceStore{MemStore: mem}
	svc := NewService(store, adminCaps())
	catID := seedBank(t, mem, true)

	_, err := svc.CreateInstance(ctx, CreateInstanceParams{CatalogID: catID, Holder: "x", Reference: "y"})
	if !errors.Is(err, ErrCreateRolledBack) {
		t.Fatalf("expected ErrCreateRolledBack, got %v", err)
	}
	details, _ := mem.GetAllInstanceDetails(ctx)
	if len(details) != 0 {
		t.Fatalf("orphan detail left behind after compensation: %+v", details)
	}
}

func TestGuards_DenyWithoutCapability(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID := seedBank(t, store, true)

	// A ready but empty set: every guard denies with ErrUnauthorized.
	svc := NewService(store, fixedCaps{set: access.NewCapabilitySet()})

	if _, err := svc.DeactivateCatalogEntity(ctx, catID); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("deactivate: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.CreateInstance(ctx, CreateInstanceParams{CatalogID: catID}); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("create: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ListUsers(ctx); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("users: expected ErrUnauthorized, got %v", err)
	}

	// Not-ready set: fail closed with the transient readiness error.
	svc = NewService(store, fixedCaps{set: access.NotReady()})
	if _, err := svc.ListCatalog(ctx, "", ""); !errors.Is(err, access.ErrPermissionsNotReady) {
		t.Fatalf("expected ErrPermissionsNotReady, got %v", err)
	}
}

func TestDeactivate_CompositeGate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID := seedBank(t, store, true)

	// Edit token alone is not enough without the toggle token.
	svc := NewService(store, fixedCaps{set: access.NewCapabilitySet(CapCatalogEditBank)})
	if _, err := svc.DeactivateCatalogEntity(ctx, catID); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without toggle token, got %v", err)
	}

	svc = NewService(store, fixedCaps{set: access.NewCapabilitySet(CapCatalogEditBank, CapCatalogToggle)})
	if _, err := svc.DeactivateCatalogEntity(ctx, catID); err != nil {
		t.Fatalf("expected allow with edit+toggle, got %v", err)
	}
}

func TestMutations_WriteAuditAndRefresh(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())
	syncer := listsync.New(store, 0)
	svc.SetSynchronizer(syncer)
	catID := seedBank(t, store, true)

	if _, err := svc.DeactivateCatalogEntity(ctx, catID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	entries, _ := store.GetAllAuditLogEntries(ctx)
	found := false
	for _, e := range entries {
		if e.Action == "DEACTIVATE_CATALOG" {
			found = true
		}
	}
	if !found {
		t.Fatalf("deactivation must write an audit entry, got %+v", entries)
	}

	ov, ready := syncer.Current()
	if !ready {
		t.Fatalf("mutation must refresh the synchronizer")
	}
	if len(ov.Catalog) != 1 || ov.Catalog[0].IsActive {
		t.Fatalf("refreshed snapshot must show the deactivated catalog")
	}
}

func TestToggleInstance_SurfacesLockError(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())
	catID := seedBank(t, store, true)

	detailID, err := svc.CreateInstance(ctx, CreateInstanceParams{CatalogID: catID, Holder: "x", Reference: "y"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.DeactivateCatalogEntity(ctx, catID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.ToggleInstance(ctx, detailID); !errors.Is(err, cascade.ErrLockedByCatalog) {
		t.Fatalf("expected ErrLockedByCatalog, got %v", err)
	}
}

func TestBootstrapAdmin_CanToggleCatalog(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	if _, err := store.AddRole(ctx, "admin", BootstrapAdminCapabilities); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	if _, err := store.AddUser(ctx, "root", "admin", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	set, err := CapabilityLoader{Store: store}.LoadCapabilities(ctx, "root")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	svc := NewService(store, fixedCaps{set: set})
	catID := seedBank(t, store, true)
	if _, err := svc.DeactivateCatalogEntity(ctx, catID); err != nil {
		t.Fatalf("bootstrap admin must pass the composite toggle gate: %v", err)
	}
	if _, err := svc.ReactivateCatalogEntity(ctx, catID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
}

func TestCreateUser_RequiresKnownRole(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())

	if _, err := svc.CreateUser(ctx, "maria", "cashier", ""); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := svc.CreateRole(ctx, "cashier", "instance.toggle_detail"); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := svc.CreateUser(ctx, "maria", "cashier", ""); err != nil {
		t.Fatalf("create user: %v", err)
	}
}
