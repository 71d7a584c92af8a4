// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package registry

import (
	"context"
	"strings"

	"github.com/veloretti/cambiodesk/internal/access"
	"github.com/veloretti/cambiodesk/internal/db"
)

// CapabilityLoader resolves an actor's capability tokens through the user
// and role tables. It satisfies access.Loader.
type CapabilityLoader struct {
	Store db.Store
}

// LoadCapabilities returns the actor's capability snapshot: the tokens of
// their role plus any per-user extra grants. A missing or deactivated user
// resolves to a ready, empty set, so every gate denies without the session
// being stuck in the not-ready state.
func (l CapabilityLoader) LoadCapabilities(ctx context.Context, actor string) (access.CapabilitySet, error) {
	u, err := l.Store.GetUserByUsername(ctx, actor)
	if err != nil {
		return access.NotReady(), err
	}
	if u == nil || !u.IsActive {
		return access.NewCapabilitySet(), nil
	}

	var tokens []access.Capability
	if r, err := l.Store.GetRoleByName(ctx, u.Role); err != nil {
		return access.NotReady(), err
	} else if r != nil {
		tokens = append(tokens, splitCaps(r.Capabilities)...)
	}
	tokens = append(tokens, splitCaps(u.ExtraCapabilities)...)
	return access.NewCapabilitySet(tokens...), nil
}

// splitCaps parses a comma-separated capability list, trimming whitespace
// and dropping empty entries.
func splitCaps(csv string) []access.Capability {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]access.Capability, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, access.Capability(p))
	}
	return out
}
