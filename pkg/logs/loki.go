package logs

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

const lokiPushPath = "/loki/api/v1/push"

// newLokiHandler returns a handler that ships records to Loki's push API
// through the batching loki client. stop flushes pending batches.
func newLokiHandler(cfg *config.Config, level slog.Level) (slog.Handler, func(), error) {
	lc := cfg.Logging.Output.Loki

	endpoint, err := lokiPushURL(lc.Endpoint, lc.Username, lc.Password)
	if err != nil {
		return nil, nil, err
	}

	clientCfg, err := loki.NewDefaultConfig(endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("loki config: %w", err)
	}
	clientCfg.TenantID = lc.TenantID

	client, err := loki.New(clientCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("loki client: %w", err)
	}

	h := slogloki.Option{
		Level:  level,
		Client: client,
	}.NewLokiHandler()

	return h, client.Stop, nil
}

// lokiPushURL appends the push path and embeds basic-auth credentials.
func lokiPushURL(endpoint, username, password string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(endpoint), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid loki endpoint %q", endpoint)
	}
	if !strings.HasSuffix(u.Path, lokiPushPath) {
		u.Path += lokiPushPath
	}
	if username != "" {
		u.User = url.UserPassword(username, password)
	}
	return u.String(), nil
}
