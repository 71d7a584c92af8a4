// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "strings"

// TokenizeSearchQuery splits a free-text query into lower-cased tokens.
// Whitespace-only input yields nil so callers can skip the name filter.
func TokenizeSearchQuery(q string) []string {
	tokens := strings.Fields(strings.ToLower(q))
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
