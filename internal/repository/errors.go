// Package repository defines the thin SQL data access layer and the error
// values shared across repositories. Sentinel values allow higher layers to
// distinguish failure scenarios: ErrNotFound signals an absent row (handlers
// translate it into HTTP 404, engines use it for existence checks), while
// any other error means the store itself failed and is reported generically.
package repository

import (
    "database/sql"
    "errors"
)

// ErrNotFound is returned when a lookup matches no row. Every repository
// maps sql.ErrNoRows onto this value so that callers never depend on
// database/sql directly to detect absence.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness rule, such
// as registering an already-taken username.
var ErrDuplicate = errors.New("already exists")

// notFound converts sql.ErrNoRows into ErrNotFound and passes every other
// error through unchanged.
func notFound(err error) error {
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    return err
}
