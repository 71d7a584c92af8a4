// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db contains shared database errors and helpers.
package db

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when an insert collides with an existing record's
// unique identity (username, role name, currency code, kind+name, ...).
var ErrDuplicate = errors.New("duplicate record")

// Fragments of driver error text that signal a unique-constraint hit:
// sqlite ("UNIQUE constraint failed"), postgres (SQLSTATE 23505),
// mysql (error 1062 "Duplicate entry"). Matching on text keeps the three
// driver packages out of this file.
var duplicateMarkers = []string{"unique", "duplicate", "23505", "1062"}

// MapDBError maps low-level driver errors onto the package sentinels so
// callers can branch with errors.Is. Unrecognized errors pass through.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	text := strings.ToLower(err.Error())
	for _, m := range duplicateMarkers {
		if strings.Contains(text, m) {
			return ErrDuplicate
		}
	}
	return err
}
