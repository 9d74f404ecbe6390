package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Alijeyrad/mentorbook_backend/config"
)

// New builds a logger from config, supporting multi-output fan-out. The
// returned stop func flushes buffered outputs and must be called on shutdown.
func New(cfg *config.Config) (*slog.Logger, func()) {
	level := parseLevel(cfg.Logging.Level)
	isDev := strings.EqualFold(cfg.Server.Environment, "development")
	out := cfg.Logging.Output

	var writers []io.Writer

	// stdout is the fallback when nothing else is configured
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, os.Stdout)
	}

	var closers []func()
	if out.File.Enabled {
		lj := &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		}
		writers = append(writers, lj)
		closers = append(closers, func() { _ = lj.Close() })
	}

	var handlers []slog.Handler
	if len(writers) > 0 {
		w := io.MultiWriter(writers...)
		opts := &slog.HandlerOptions{
			Level:     level,
			AddSource: isDev,
		}
		if strings.EqualFold(cfg.Logging.Format, "json") || !isDev {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}

	if out.Loki.Enabled {
		h, stop, err := newLokiHandler(cfg, level)
		if err != nil {
			// keep logging locally; Loki is best effort
			slog.New(fanOut(handlers)).Error("loki disabled", "error", err)
		} else {
			handlers = append(handlers, h)
			closers = append(closers, stop)
		}
	}

	logger := slog.New(contextHandler{fanOut(handlers)}).With(
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	)

	return logger, func() {
		for _, c := range closers {
			c()
		}
	}
}

func Default() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	})
	return slog.New(h).With(slog.String("service", "mentorbook"))
}

func fanOut(handlers []slog.Handler) slog.Handler {
	switch len(handlers) {
	case 0:
		return slog.NewJSONHandler(os.Stdout, nil)
	case 1:
		return handlers[0]
	default:
		return &multiHandler{handlers: handlers}
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
