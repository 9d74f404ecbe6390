package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo/memory"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo/postgres"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/crypto"
	"github.com/Alijeyrad/mentorbook_backend/pkg/database"
	"github.com/Alijeyrad/mentorbook_backend/pkg/events"
	"github.com/Alijeyrad/mentorbook_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/mentorbook_backend/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
)

func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (repo.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	dbCfg := database.FromCentralConfig(cfg.Database)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, err
	}

	if dbCfg.AutoMigrate {
		if err := database.MigrateUp(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	var opts []postgres.Option
	if cfg.Database.FieldKeyHex != "" {
		sealer, err := crypto.NewSealer(cfg.Database.FieldKeyHex)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database.field_key_hex: %w", err)
		}
		opts = append(opts, postgres.WithSealer(sealer))
	}

	store := postgres.New(db, opts...)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return store.Close()
		},
	})
	return store, nil
}

// ProvideRedis returns nil when redis is disabled; consumers fall back to
// their no-cache or no-session paths.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)

	var auth authorize.IAuthorization
	if acfg.PersistPolicies {
		enforcer, cleanup, err := authorize.NewEnforcer(database.NewDSN(cfg.CasbinDatabase))
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				slog.Debug("cleaning up Casbin enforcer")
				cleanup(ctx)
				return nil
			},
		})
		if auth, err = authorize.NewAuthorization(enforcer, acfg.AdminBypass); err != nil {
			cleanup(context.Background())
			return nil, err
		}
	} else {
		enforcer, err := authorize.NewMemoryEnforcer()
		if err != nil {
			return nil, err
		}
		if auth, err = authorize.NewAuthorization(enforcer, acfg.AdminBypass); err != nil {
			return nil, err
		}
		// nothing persisted, so the built-in set is the policy
		if err := authorize.SeedDefaultPolicies(context.Background(), auth); err != nil {
			return nil, err
		}
	}

	if acfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, slog.Default())
	}
	return auth, nil
}

// ProvideNatsClient returns nil when no URL is configured.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name(cfg.Nats.Name))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvidePublisher(nc *nats.Conn, cfg *config.Config) (events.Publisher, error) {
	var pub events.Publisher = events.Nop{}
	if nc != nil {
		pub = events.NewNATS(nc)
	}
	if !cfg.Observability.Enabled {
		return pub, nil
	}
	return observability.NewCountingPublisher(pub)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(),
		observability.FromCentralConfig(cfg.Observability, cfg.Server.Environment))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
