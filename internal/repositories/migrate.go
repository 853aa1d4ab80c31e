package repositories

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories/migrations"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded inventory schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	err := gooseUpContext(ctx, db, ".")
	logger.Log.Infow("migrations applied", "error", err)
	return err
}
