package http

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/mentorbook_backend/config"
	apihttp "github.com/Alijeyrad/mentorbook_backend/internal/api/http"
	"github.com/Alijeyrad/mentorbook_backend/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var (
		shutdownTimeout time.Duration
		port            int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the scheduling API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			// installed before fx so its own event log goes through it too
			logger, flush := logs.New(cfg)
			defer flush()
			slog.SetDefault(logger)

			slog.Info("starting mentorbook api",
				"port", cfg.Server.Port,
				"environment", cfg.Server.Environment,
				"store", cfg.Database.Driver,
			)
			apihttp.Start(cfg, shutdownTimeout)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Upper bound for startup and graceful shutdown")
	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")
	return cmd
}
