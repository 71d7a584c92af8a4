// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package access

import "context"

// Loader resolves the capability tokens for an actor. Implementations
// typically look the actor up in the user/role store; the result is loaded
// once per session and never mutated afterwards.
type Loader interface {
	LoadCapabilities(ctx context.Context, actor string) (CapabilitySet, error)
}
