package listsync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veloretti/cambiodesk/internal/model"
)

type fakeFetcher struct {
	calls atomic.Int64
	err   error
	view  model.Overview
}

func (f *fakeFetcher) FetchOverview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	ov := f.view
	return &ov, nil
}

func TestSynchronizer_ReadyIsDistinctFromEmpty(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, 0)

	if _, ready := s.Current(); ready {
		t.Fatalf("synchronizer must not be ready before the first refresh")
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	ov, ready := s.Current()
	if !ready {
		t.Fatalf("synchronizer must be ready after a successful refresh")
	}
	if len(ov.Catalog) != 0 || len(ov.Details) != 0 {
		t.Fatalf("expected an empty-but-ready snapshot")
	}
}

func TestSynchronizer_RefreshPublishesToSubscribers(t *testing.T) {
	f := &fakeFetcher{view: model.Overview{
		Catalog: []model.CatalogEntity{{ID: 1, Kind: model.KindBank, Name: "Acme", IsActive: true}},
	}}
	s := New(f, 0)

	var got atomic.Int64
	s.Subscribe(func(ov model.Overview) {
		got.Store(int64(len(ov.Catalog)))
	})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.Load() != 1 {
		t.Fatalf("subscriber did not receive the snapshot")
	}
}

func TestSynchronizer_FailedRefreshKeepsPreviousView(t *testing.T) {
	f := &fakeFetcher{view: model.Overview{
		Catalog: []model.CatalogEntity{{ID: 1, Kind: model.KindBank, Name: "Acme"}},
	}}
	s := New(f, 0)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	f.err = errors.New("backend down")
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	ov, ready := s.Current()
	if !ready || len(ov.Catalog) != 1 {
		t.Fatalf("failed refresh must leave the previous snapshot in place")
	}
}

func TestSynchronizer_FocusTriggersRefresh(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.NotifyFocus()
	deadline := time.After(2 * time.Second)
	for f.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("focus signal did not trigger a refresh")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestSynchronizer_PeriodicRefresh(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	deadline := time.After(2 * time.Second)
	for f.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("ticker did not drive refreshes")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSynchronizer_SetScopeAppliesToNextRefresh(t *testing.T) {
	var seenKind model.CatalogKind
	f := &scopeFetcher{record: &seenKind}
	s := New(f, 0)

	s.SetScope(model.KindWallet, "fox")
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if seenKind != model.KindWallet {
		t.Fatalf("refresh fetched kind %q, want wallet", seenKind)
	}
}

type scopeFetcher struct {
	record *model.CatalogKind
}

func (f *scopeFetcher) FetchOverview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error) {
	*f.record = kind
	return &model.Overview{}, nil
}
