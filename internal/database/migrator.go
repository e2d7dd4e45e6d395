package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

const (
	versionTable = "schema_version"

	// Arbitrary key shared by every instance; holders of the lock run
	// migrations one at a time.
	migrationLockKey int64 = 0x53_54_4f_52_45
)

//go:embed migrations/*.sql
var migrations embed.FS

// LoadMigrations returns the embedded migration files.
func LoadMigrations() (fs.FS, error) {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	return sub, nil
}

// Migrate brings the schema up to date on a dedicated connection. An
// advisory lock serializes instances starting at the same time.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	conn, err := pgx.Connect(ctx, DSN(cfg.Database))
	if err != nil {
		return fmt.Errorf("connecting for migrations: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			logger.Warn().Err(err).Msg("releasing migration lock")
		}
	}()

	m, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	target := int32(len(m.Migrations))
	if from == target {
		logger.Info().Int32("version", target).Msg("database schema up to date")
		return nil
	}

	m.OnStart = func(seq int32, name, _, _ string) {
		logger.Info().Int32("sequence", seq).Str("migration", name).Msg("applying migration")
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	logger.Info().Int32("from", from).Int32("to", target).Msg("migrated database schema")
	return nil
}

func newMigrator(ctx context.Context, conn *pgx.Conn) (*tern.Migrator, error) {
	m, err := tern.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	sub, err := LoadMigrations()
	if err != nil {
		return nil, err
	}
	if err := m.LoadMigrations(sub); err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}
	return m, nil
}
