package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending goose migrations to the main database and, when policies are
persisted, seed the default Casbin policies. --down rolls back one migration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("database.driver is %q, nothing to migrate", config.DriverMemory)
			}

			db, err := database.Open(database.FromCentralConfig(cfg.Database))
			if err != nil {
				return err
			}
			defer db.Close()

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if down {
				fmt.Println("Rolling back the latest migration.")
				if err := database.MigrateDown(ctx, db); err != nil {
					return err
				}
				fmt.Println("Rollback done.")
				return nil
			}

			fmt.Println("Running migrations for main DB.")
			if err := database.MigrateUp(ctx, db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			if cfg.Authorization.PersistPolicies {
				fmt.Println("Seeding policies in Casbin DB.")
				enforcer, cleanup, err := authorize.NewEnforcer(database.NewDSN(cfg.CasbinDatabase))
				if err != nil {
					return fmt.Errorf("failed to create enforcer: %w", err)
				}
				defer cleanup(context.Background())

				auth, err := authorize.NewAuthorization(enforcer, cfg.Authorization.AdminBypass)
				if err != nil {
					return fmt.Errorf("failed to create authorization: %w", err)
				}

				slog.Info("seeding casbin policies")
				if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
					return fmt.Errorf("failed to seed policies: %w", err)
				}
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the most recent migration")

	return cmd
}
