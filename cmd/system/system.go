package system

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Maintenance and tooling commands",
	}

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewGenDocsCommand())
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewUserCommand())
	cmd.AddCommand(NewTokenCommand())

	return cmd
}

func readConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}
