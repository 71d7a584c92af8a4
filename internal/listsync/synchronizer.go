// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// package listsync keeps registry views fed with consistent, read-after-write
// list data. After every mutation the consumer calls Refresh, which fetches
// the catalog/detail/instance triple as one snapshot and notifies
// subscribers. A periodic ticker and a focus signal bound the staleness
// introduced by other sessions; they are a liveness aid only — correctness
// comes from refetch-after-own-mutation.
package listsync

import (
	"context"
	"sync"
	"time"

	"github.com/veloretti/cambiodesk/internal/logging"
	"github.com/veloretti/cambiodesk/internal/model"
)

// Fetcher returns the three registry lists as one consistent snapshot
// (conceptually a single transaction boundary on the store side).
type Fetcher interface {
	FetchOverview(ctx context.Context, kind model.CatalogKind, filter string) (*model.Overview, error)
}

// Listener receives the fresh snapshot after every successful refresh.
type Listener func(model.Overview)

// Synchronizer owns the current snapshot for one view scope. There is no
// cancellation of in-flight fetches: a superseded fetch is allowed to
// complete and overwrite the view, last write wins.
type Synchronizer struct {
	fetcher  Fetcher
	interval time.Duration

	mu        sync.Mutex
	kind      model.CatalogKind
	filter    string
	view      model.Overview
	ready     bool
	listeners []Listener

	focus chan struct{}
}

// New returns a Synchronizer that refreshes on demand and, once Run is
// started, every interval. A non-positive interval disables the ticker.
func New(fetcher Fetcher, interval time.Duration) *Synchronizer {
	return &Synchronizer{
		fetcher:  fetcher,
		interval: interval,
		focus:    make(chan struct{}, 1),
	}
}

// SetScope changes the catalog kind and search filter the snapshot covers.
// The next refresh fetches the new scope; an in-flight fetch for the old
// scope may still land first and is overwritten by the newer result.
func (s *Synchronizer) SetScope(kind model.CatalogKind, filter string) {
	s.mu.Lock()
	s.kind = kind
	s.filter = filter
	s.mu.Unlock()
}

// Refresh fetches the triple for the current scope and publishes it to all
// subscribers. Call after every own mutation.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	kind, filter := s.kind, s.filter
	s.mu.Unlock()

	ov, err := s.fetcher.FetchOverview(ctx, kind, filter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.view = *ov
	s.ready = true
	listeners := append([]Listener(nil), s.listeners...)
	view := s.view
	s.mu.Unlock()

	for _, l := range listeners {
		l(view)
	}
	return nil
}

// Current returns the latest snapshot and whether one has been loaded at
// all. A not-ready view is a distinct state from an empty-but-ready one;
// consumers show a loading indicator until ready.
func (s *Synchronizer) Current() (model.Overview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.ready
}

// Subscribe registers a listener for future refreshes.
func (s *Synchronizer) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// NotifyFocus requests a best-effort refresh because the view regained
// focus. Never blocks; coalesces with a pending focus signal.
func (s *Synchronizer) NotifyFocus() {
	select {
	case s.focus <- struct{}{}:
	default:
	}
}

// Run drives the periodic and focus-triggered refreshes until ctx is done.
// Errors are logged and swallowed: a failed background refresh leaves the
// previous snapshot in place and the view stays interactive.
func (s *Synchronizer) Run(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if err := s.Refresh(ctx); err != nil {
				logging.Debugf("listsync: periodic refresh failed: %v", err)
			}
		case <-s.focus:
			if err := s.Refresh(ctx); err != nil {
				logging.Debugf("listsync: focus refresh failed: %v", err)
			}
		}
	}
}
