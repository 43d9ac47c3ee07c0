package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var dbMigrations embed.FS

// Direction selects which way Migrate moves the schema.
type Direction int

const (
	Up Direction = iota
	Down
)

// Migrate applies (or rolls back) every embedded migration against the pool's
// database. An already current schema is not an error.
func Migrate(pool *pgxpool.Pool, dir Direction) error {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	dst, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("open migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "pgx5", dst)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if dir == Down {
		err = migrator.Down()
	} else {
		err = migrator.Up()
	}
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// schema already current
	case err != nil:
		return err
	}
	return nil
}
