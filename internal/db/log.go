// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/veloretti/cambiodesk/internal/logging"

// Query timing output is opt-in; it is noisy even at debug level.
var debugEnabled bool

// SetDebug turns query timing output on or off. Off by default.
func SetDebug(enabled bool) { debugEnabled = enabled }

func dbLogf(format string, v ...any) {
	if !debugEnabled {
		return
	}
	logging.Debugf(format, v...)
}
