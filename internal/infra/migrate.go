package infra

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migraciones embed.FS

// Migrar applies every pending up migration embedded in the binary.
// Returns nil when the schema is already current.
func Migrar(databaseURL string) error {
	m, cerrar, err := nuevoMigrador(databaseURL)
	if err != nil {
		return err
	}
	defer cerrar()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("migraciones: sin cambios")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migraciones: up: %w", err)
	}
	v, dirty, _ := m.Version()
	log.Info().Uint("version", v).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

// Revertir rolls back n migrations.
func Revertir(databaseURL string, n int) error {
	m, cerrar, err := nuevoMigrador(databaseURL)
	if err != nil {
		return err
	}
	defer cerrar()

	if err := m.Steps(-n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migraciones: down %d: %w", n, err)
	}
	return nil
}

// VersionMigraciones reports the applied version.
func VersionMigraciones(databaseURL string) (uint, bool, error) {
	m, cerrar, err := nuevoMigrador(databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer cerrar()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func nuevoMigrador(databaseURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("migraciones: abrir conexion: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migraciones: ping: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migraciones: driver: %w", err)
	}
	src, err := iofs.New(migraciones, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migraciones: fuente: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migraciones: instancia: %w", err)
	}
	cerrar := func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("db", dbErr).Msg("migraciones: cierre")
		}
	}
	return m, cerrar, nil
}
