package registry

import (
	"context"
	"testing"

	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/testutil"
)

func TestLoadCapabilities_RolePlusExtras(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	if _, err := store.AddRole(ctx, "cashier", "instance.toggle_detail, catalog.view_entries"); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	if _, err := store.AddUser(ctx, "maria", "cashier", "rate.manage_rates"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	set, err := CapabilityLoader{Store: store}.LoadCapabilities(ctx, "maria")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !set.Ready() {
		t.Fatalf("loaded set must be ready")
	}
	for _, tok := range []access.Capability{"instance.toggle_detail", "catalog.view_entries", "rate.manage_rates"} {
		if !set.Has(tok) {
			t.Fatalf("missing token %s in %v", tok, set.Tokens())
		}
	}
}

func TestLoadCapabilities_MissingOrInactiveUser(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()

	set, err := CapabilityLoader{Store: store}.LoadCapabilities(ctx, "ghost")
	if err != nil {
		t.Fatalf("load missing user: %v", err)
	}
	if !set.Ready() || set.Len() != 0 {
		t.Fatalf("missing user must resolve to a ready empty set")
	}

	if _, err := store.AddRole(ctx, "admin", "admin.full_access"); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	id, err := store.AddUser(ctx, "karl", "admin", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := store.ToggleUserStatus(ctx, id); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	set, err = CapabilityLoader{Store: store}.LoadCapabilities(ctx, "karl")
	if err != nil {
		t.Fatalf("load inactive user: %v", err)
	}
	if !set.Ready() || set.Len() != 0 {
		t.Fatalf("inactive user must resolve to a ready empty set, got %v", set.Tokens())
	}
}
