package database

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations applies every pending migration in migrationsDir and logs
// the resulting schema version
func RunMigrations(db *sql.DB, migrationsDir string, logger *zap.Logger) error {
	logger.Info("Applying migrations", zap.String("dir", migrationsDir))
	if err := Migrate(db, migrationsDir, "up"); err != nil {
		return err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("Schema up to date", zap.Int64("version", version))
	return nil
}

// Migrate runs a goose command such as up, down, status, redo or version
func Migrate(db *sql.DB, migrationsDir, command string, args ...string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
