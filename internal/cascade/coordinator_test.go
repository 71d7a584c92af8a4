package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/veloretti/cambiodesk/internal/model"
	"github.com/veloretti/cambiodesk/internal/testutil"
)

// seedAcme builds the canonical scenario: one bank with three details, two
// active and one the owner already deactivated.
func seedAcme(t *testing.T, store *testutil.MemStore) (int, []string) {
	t.Helper()
	ctx := context.Background()
	id, err := store.AddCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindBank, Name: "Acme", IsActive: true})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	ids := []string{"d-1", "d-2", "d-3"}
	for i, did := range ids {
		d := model.InstanceDetail{ID: did, CatalogEntityID: id, IsActive: i < 2}
		if err := store.AddInstanceDetail(ctx, d); err != nil {
			t.Fatalf("seed detail %s: %v", did, err)
		}
	}
	return id, ids
}

func TestDeactivateCatalog_CascadesAndLocks(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID, ids := seedAcme(t, store)
	c := New(store)

	n, err := c.DeactivateCatalog(ctx, catID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 details changed, got %d", n)
	}

	ent, _ := store.GetCatalogEntity(ctx, catID)
	if ent.IsActive {
		t.Fatalf("catalog must be inactive after cascade")
	}
	for _, did := range ids[:2] {
		d, _ := store.GetInstanceDetail(ctx, did)
		if d.IsActive || !d.LockedByCatalog {
			t.Fatalf("detail %s: want inactive+locked, got active=%t locked=%t", did, d.IsActive, d.LockedByCatalog)
		}
	}
	// The owner-deactivated detail was not forced, so it stays unlocked.
	d3, _ := store.GetInstanceDetail(ctx, ids[2])
	if d3.LockedByCatalog {
		t.Fatalf("owner-deactivated detail must not be locked")
	}
}

func TestDeactivateCatalog_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID, _ := seedAcme(t, store)
	c := New(store)

	if _, err := c.DeactivateCatalog(ctx, catID); err != nil {
		t.Fatalf("first deactivate: %v", err)
	}
	n, err := c.DeactivateCatalog(ctx, catID)
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	if n != 0 {
		t.Fatalf("re-run must be a no-op, changed %d", n)
	}
}

func TestDeactivateCatalog_PartialFailureAndResume(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID, err := store.AddCatalogEntity(ctx, model.CatalogEntity{Kind: model.KindWallet, Name: "PayFox", IsActive: true})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	for _, did := range []string{"w-1", "w-2", "w-3"} {
		if err := store.AddInstanceDetail(ctx, model.InstanceDetail{ID: did, CatalogEntityID: catID, IsActive: true}); err != nil {
			t.Fatalf("seed detail: %v", err)
		}
	}

	store.FailDetailWrites = 1
	c := New(store)
	n, err := c.DeactivateCatalog(ctx, catID)
	var partial *PartialCascadeError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialCascadeError, got %v", err)
	}
	if partial.Requested != 3 || partial.Updated != 1 || n != 1 {
		t.Fatalf("unexpected counts: requested=%d updated=%d n=%d", partial.Requested, partial.Updated, n)
	}

	// The catalog flag committed before the batch; readers never see an
	// active catalog with locked details.
	ent, _ := store.GetCatalogEntity(ctx, catID)
	if ent.IsActive {
		t.Fatalf("catalog flag must commit before the detail batch")
	}

	// Re-running after the fault clears finishes the remaining details.
	store.FailDetailWrites = -1
	n, err = c.DeactivateCatalog(ctx, catID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if n != 2 {
		t.Fatalf("resume must lock the 2 remaining details, got %d", n)
	}
}

func TestReactivateCatalog_UnlocksButKeepsInactive(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID, ids := seedAcme(t, store)
	c := New(store)

	if _, err := c.DeactivateCatalog(ctx, catID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	n, err := c.ReactivateCatalog(ctx, catID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 details unlocked, got %d", n)
	}

	ent, _ := store.GetCatalogEntity(ctx, catID)
	if !ent.IsActive {
		t.Fatalf("catalog must be active again")
	}
	for _, did := range ids {
		d, _ := store.GetInstanceDetail(ctx, did)
		if d.LockedByCatalog {
			t.Fatalf("detail %s still locked after restore", did)
		}
		if d.IsActive {
			t.Fatalf("detail %s must stay inactive until explicitly reactivated", did)
		}
	}
}

func TestToggleInstance_RejectsLocked(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	catID, ids := seedAcme(t, store)
	c := New(store)

	if _, err := c.DeactivateCatalog(ctx, catID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := c.ToggleInstance(ctx, ids[0]); !errors.Is(err, ErrLockedByCatalog) {
		t.Fatalf("expected ErrLockedByCatalog, got %v", err)
	}
	d, _ := store.GetInstanceDetail(ctx, ids[0])
	if d.IsActive || !d.LockedByCatalog {
		t.Fatalf("rejected toggle must leave the detail unchanged")
	}

	// After restore the same toggle succeeds.
	if _, err := c.ReactivateCatalog(ctx, catID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	active, err := c.ToggleInstance(ctx, ids[0])
	if err != nil {
		t.Fatalf("toggle after restore: %v", err)
	}
	if !active {
		t.Fatalf("toggle must flip the inactive detail to active")
	}
}

func TestToggleInstance_FlipsFreeDetail(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	_, ids := seedAcme(t, store)
	c := New(store)

	active, err := c.ToggleInstance(ctx, ids[0])
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if active {
		t.Fatalf("active detail must flip to inactive")
	}
	// A detail the owner deactivated is InactiveFree, not locked, and can
	// come back without touching the catalog.
	active, err = c.ToggleInstance(ctx, ids[0])
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if !active {
		t.Fatalf("detail must flip back to active")
	}
}

func TestCoordinator_NotFound(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	c := New(store)

	if _, err := c.DeactivateCatalog(ctx, 99); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
	if _, err := c.ReactivateCatalog(ctx, 99); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
	if _, err := c.ToggleInstance(ctx, "nope"); !errors.Is(err, ErrDetailNotFound) {
		t.Fatalf("expected ErrDetailNotFound, got %v", err)
	}
}

func TestPairStateOf(t *testing.T) {
	cases := []struct {
		name   string
		detail model.InstanceDetail
		want   PairState
	}{
		{"active free", model.InstanceDetail{IsActive: true}, ActiveFree},
		{"inactive free", model.InstanceDetail{}, InactiveFree},
		{"locked", model.InstanceDetail{LockedByCatalog: true}, LockedInactive},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := PairStateOf(c.detail); got != c.want {
				t.Fatalf("PairStateOf = %v, want %v", got, c.want)
			}
		})
	}
}
