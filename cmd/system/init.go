package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/mentorbook_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the application and policy databases if missing",
		Long: `Connects to the maintenance database and creates database.dbname, plus
casbin_database.dbname when policies are persisted, if they do not exist.
Run "system migrate" afterwards to create the schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Server.TimeoutSeconds)*time.Second)
			defer cancel()

			if err := database.InitializeDatabases(ctx, cfg); err != nil {
				return fmt.Errorf("initialize databases: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %q is ready\n", cfg.Database.DBName)
			return nil
		},
	}
}
