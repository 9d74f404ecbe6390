package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

// InitializeDatabases creates the application database and, when policies are
// persisted, the casbin database. It connects to the maintenance 'postgres'
// database to do so.
func InitializeDatabases(ctx context.Context, cfg *config.Config) error {
	names := []string{cfg.Database.DBName}
	if cfg.Authorization.PersistPolicies && cfg.CasbinDatabase.DBName != "" && cfg.CasbinDatabase.DBName != cfg.Database.DBName {
		names = append(names, cfg.CasbinDatabase.DBName)
	}

	admin := FromCentralConfig(cfg.Database)
	admin.DBName = "postgres"

	conn, err := Open(admin)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	for _, name := range names {
		if name == "" {
			return fmt.Errorf("database name is empty")
		}
		if err := createDatabaseIfNotExists(ctx, conn, name); err != nil {
			return fmt.Errorf("failed to create database %q: %w", name, err)
		}
	}

	return nil
}

func createDatabaseIfNotExists(ctx context.Context, conn *sql.DB, dbName string) error {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := conn.QueryRowContext(ctx, query, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}
