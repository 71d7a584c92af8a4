// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package access

import "errors"

// ErrPermissionsNotReady indicates the session capability set has not been
// loaded yet. Transient; resolved by waiting for the load to finish.
var ErrPermissionsNotReady = errors.New("permissions not loaded yet")

// ErrUnauthorized indicates the capability gate denied the operation. It is
// never surfaced as a network error; the UI simply renders no affordance.
var ErrUnauthorized = errors.New("operation not permitted")
