package storage

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrUniqueViolation is returned when a write collides with a unique column.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrNotFound is returned when an update or lookup by id matched no row.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps any other engine failure.
	ErrStorage = errors.New("storage error")
)

// classify maps a driver error onto the package taxonomy, keeping the
// original error in the chain.
func classify(op string, err error) error {
	if isUniqueViolation(err) {
		return &opError{op: op, kind: ErrUniqueViolation, err: err}
	}
	return &opError{op: op, kind: ErrStorage, err: err}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
}

func (e *opError) Unwrap() []error {
	return []error{e.kind, e.err}
}
