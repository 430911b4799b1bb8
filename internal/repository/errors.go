// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// rental engine and the HTTP handlers to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update would violate a unique
// key, such as a second game with the same name or a second customer with
// the same CPF. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when a foreign key points at a row that
// does not exist (e.g. a game created for an unknown category).
var ErrInvalidReference = errors.New("invalid reference")

// MySQL server error numbers we translate.
const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
)

// translate maps driver errors onto the sentinel values above.  Errors that
// have no sentinel are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrConflict
		case mysqlNoReferenced:
			return ErrInvalidReference
		}
	}
	return err
}
