package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator wraps golang-migrate with the schema files embedded in the
// binary.  It takes ownership of the database handle it was built with.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator prepares a migrator bound to an open MySQL connection.
func NewMigrator(db *sql.DB) (*Migrator, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	drv, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", drv)
	if err != nil {
		return nil, fmt.Errorf("migration init: %w", err)
	}
	return &Migrator{m: m}, nil
}

// OpenMigrator opens a dedicated connection for schema changes and wraps it
// in a Migrator.  Closing the Migrator closes the connection.
func OpenMigrator(user, pass, host, port, name string) (*Migrator, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name)+"&multiStatements=true")
	if err != nil {
		return nil, err
	}
	mg, err := NewMigrator(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return mg, nil
}

// Up applies every pending migration.  An already current schema is not an
// error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Down rolls back the given number of migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		steps = 1
	}
	if err := mg.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version reports the applied schema version.  ok is false when no
// migration has been applied yet.
func (mg *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

// Close releases the migration source and the database handle.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
