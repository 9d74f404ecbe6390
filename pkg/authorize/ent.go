package authorize

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	entadapter "github.com/casbin/ent-adapter"
)

// instances exchange policy change notices on this LISTEN/NOTIFY channel
const watcherChannel = "mentorbook_casbin_policy_update"

// policyStale is set while the most recent watcher reload has failed.
var policyStale atomic.Bool

// IsPolicyHealthy backs the readiness probe.
func IsPolicyHealthy() bool { return !policyStale.Load() }

type CleanupFunc func(ctx context.Context)

// NewEnforcer opens the persisted policy store. Policies live in Postgres via
// the ent adapter and every write is broadcast so peers reload.
func NewEnforcer(dsn string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	adapter, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin adapter: %w", err)
	}
	m, err := Model()
	if err != nil {
		return nil, nil, err
	}
	e, err := casbin.NewDistributedEnforcer(m, adapter)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{Channel: watcherChannel})
	if err != nil {
		return nil, nil, fmt.Errorf("casbin watcher: %w", err)
	}
	if err := w.SetUpdateCallback(reloadOnNotify(e)); err != nil {
		w.Close()
		return nil, nil, err
	}
	if err := e.SetWatcher(w); err != nil {
		w.Close()
		return nil, nil, err
	}
	e.EnableAutoSave(true)

	return e, func(context.Context) {
		slog.Info("closing casbin policy watcher")
		w.Close()
	}, nil
}

func reloadOnNotify(e *casbin.DistributedEnforcer) func(string) {
	return func(msg string) {
		err := e.LoadPolicy()
		policyStale.Store(err != nil)
		if err != nil {
			slog.Error("casbin policy reload failed", "notice", msg, "error", err)
			return
		}
		slog.Debug("casbin policy reloaded", "notice", msg)
	}
}
