package authorize

import "github.com/Alijeyrad/mentorbook_backend/config"

// Config holds configuration for the authorization system
type Config struct {
	// PersistPolicies stores policies in Postgres (ent adapter + watcher)
	// instead of seeding an in-memory enforcer on every start.
	PersistPolicies bool

	// EnableAudit logs every authorization decision.
	EnableAudit bool

	// AdminBypass lets ADMIN skip policy evaluation.
	AdminBypass bool
}

func DefaultConfig() Config {
	return Config{
		PersistPolicies: false,
		EnableAudit:     true,
		AdminBypass:     false,
	}
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		PersistPolicies: c.PersistPolicies,
		EnableAudit:     c.EnableAudit,
		AdminBypass:     c.AdminBypass,
	}
}
