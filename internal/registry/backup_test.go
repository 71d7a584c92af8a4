package registry

import (
	"bytes"
	"context"
	"testing"

	"github.com/veloretti/cambiodesk/internal/model"
	"github.com/veloretti/cambiodesk/internal/testutil"
)

func TestBackup_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())

	catID := seedBank(t, store, true)
	if _, err := store.AddCurrency(ctx, "USD", "US Dollar", "$"); err != nil {
		t.Fatalf("seed currency: %v", err)
	}
	detailID, err := svc.CreateInstance(ctx, CreateInstanceParams{
		Owner: model.HouseOwner(), CatalogID: catID, Holder: "Casa Central", Reference: "001", CurrencyCode: "USD",
	})
	if err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.WriteBackup(ctx, &buf); err != nil {
		t.Fatalf("write backup: %v", err)
	}

	// Restore into a fresh store.
	restored := testutil.NewMemStore()
	svc2 := NewService(restored, adminCaps())
	if err := svc2.ReadBackup(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("read backup: %v", err)
	}

	d, _ := restored.GetInstanceDetail(ctx, detailID)
	if d == nil || d.CatalogEntityID != catID {
		t.Fatalf("restored store missing detail %s", detailID)
	}
	inst, _ := restored.GetInstanceByDetail(ctx, detailID)
	if inst == nil || inst.CurrencyCode != "USD" {
		t.Fatalf("restored store missing instance payload")
	}
	currencies, _ := restored.GetAllCurrencies(ctx)
	if len(currencies) != 1 || currencies[0].Code != "USD" {
		t.Fatalf("restored store missing currencies")
	}
}

func TestReadBackup_RejectsUnknownSchema(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	svc := NewService(store, adminCaps())

	var buf bytes.Buffer
	if err := svc.WriteBackup(ctx, &buf); err != nil {
		t.Fatalf("write backup: %v", err)
	}

	// Corrupt stream: not zstd at all.
	if err := svc.ReadBackup(ctx, bytes.NewReader([]byte("not a backup"))); err == nil {
		t.Fatalf("expected error for a non-backup stream")
	}
}
