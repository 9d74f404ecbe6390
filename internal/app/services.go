package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/availability"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/scheduling"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/events"
	pasetotoken "github.com/Alijeyrad/mentorbook_backend/pkg/paseto"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSchedulingConfig,
		ProvideAvailabilityCache,
		ProvideAvailabilityService,
		ProvideSchedulingService,
		ProvideAppointmentService,
		ProvidePasetoManager,
	),
)

func ProvideSchedulingConfig(cfg *config.Config) (scheduling.Config, error) {
	return scheduling.FromCentralConfig(cfg.Scheduling)
}

func ProvideAvailabilityCache(rdb *redis.Client, cfg *config.Config) availability.Cache {
	ttl := time.Duration(cfg.Scheduling.AvailabilityCacheTTLSeconds) * time.Second
	if rdb == nil || ttl <= 0 {
		return availability.NopCache{}
	}
	return availability.NewRedisCache(rdb, ttl)
}

func ProvideAvailabilityService(store repo.Store, authz authorize.IAuthorization, cache availability.Cache, sc scheduling.Config) availability.Service {
	return availability.New(store, authz, cache, sc.QueryTimeout)
}

func ProvideSchedulingService(avail availability.Service, store repo.Store, sc scheduling.Config) scheduling.Service {
	return scheduling.New(avail, store.Appointments(), sc)
}

func ProvideAppointmentService(store repo.Store, authz authorize.IAuthorization, pub events.Publisher, sc scheduling.Config) appointment.Service {
	return appointment.New(store, authz, pub, sc)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
