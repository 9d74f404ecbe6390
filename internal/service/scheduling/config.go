package scheduling

import (
	"fmt"
	"time"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

// Config is the booking policy shared by the scheduling services.
type Config struct {
	// Location is the canonical clock slots are interpreted in.
	Location *time.Location

	EnforceAvailability      bool
	RejectPast               bool
	AllowCompleteFromPending bool

	DefaultPageSize int
	MaxPageSize     int

	// QueryTimeout bounds every store call made by a service.
	QueryTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Location:                 time.UTC,
		EnforceAvailability:      true,
		RejectPast:               true,
		AllowCompleteFromPending: true,
		DefaultPageSize:          10,
		MaxPageSize:              100,
		QueryTimeout:             5 * time.Second,
	}
}

// FromCentralConfig converts config.SchedulingConfig to package Config.
func FromCentralConfig(c config.SchedulingConfig) (Config, error) {
	cfg := DefaultConfig()

	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return Config{}, fmt.Errorf("scheduling.timezone: %w", err)
		}
		cfg.Location = loc
	}
	cfg.EnforceAvailability = c.EnforceAvailability
	cfg.RejectPast = c.RejectPast
	cfg.AllowCompleteFromPending = c.AllowCompleteFromPending
	if c.DefaultPageSize > 0 {
		cfg.DefaultPageSize = c.DefaultPageSize
	}
	if c.MaxPageSize > 0 {
		cfg.MaxPageSize = c.MaxPageSize
	}
	if c.QueryTimeoutSeconds > 0 {
		cfg.QueryTimeout = time.Duration(c.QueryTimeoutSeconds) * time.Second
	}
	return cfg, nil
}
