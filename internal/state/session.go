// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// package state provides a concurrency-safe, in-memory holder for transient
// session state shared between different parts of the application.
package state

import (
	"context"
	"sync"

	"github.com/veloretti/cambiodesk/internal/access"
)

// Session owns the load-once capability snapshot for one console session.
// Until Load succeeds, Capabilities returns a not-ready set and every gate
// evaluation denies. The snapshot is immutable once loaded; a new session
// means a new Session value.
type Session struct {
	Actor string

	mu     sync.RWMutex
	caps   access.CapabilitySet
	loaded bool
}

// NewSession returns an unloaded session for the given actor.
func NewSession(actor string) *Session {
	return &Session{Actor: actor}
}

// Load resolves the actor's capabilities through the loader. Only the first
// successful load takes effect; later calls are no-ops so the set stays
// immutable for the session lifetime.
func (s *Session) Load(ctx context.Context, loader access.Loader) error {
	s.mu.RLock()
	done := s.loaded
	s.mu.RUnlock()
	if done {
		return nil
	}

	caps, err := loader.LoadCapabilities(ctx, s.Actor)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.loaded {
		s.caps = caps
		s.loaded = true
	}
	s.mu.Unlock()
	return nil
}

// Capabilities returns the session's capability snapshot. Before Load it is
// the not-ready set.
func (s *Session) Capabilities() access.CapabilitySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return access.NotReady()
	}
	return s.caps
}
