package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Register the postgres database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/quarrylabs/quarry-cms/migrations"
)

// RunMigrations brings the system tables (stages, users, collections,
// change log, media) up to the latest embedded revision. Collection backing
// stores are not managed here; the schema manager provisions those at
// runtime, one table per collection.
func RunMigrations(databaseURL string) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("initializing migrator: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("applying migrations: %w", err)
	}

	srcErr, dbErr := m.Close()
	return errors.Join(err, srcErr, dbErr)
}
