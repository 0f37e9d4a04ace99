package serve

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/config"
	"github.com/urfave/cli/v3"

	// Import route plugins to trigger init() registration
	_ "github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/system"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var readHeaderTimeoutSecs int = 5
	return &cli.Command{
		Name:  "serve",
		Usage: "Replay the journal and start the chat server",
		Flags: flags(&cfg, &readHeaderTimeoutSecs),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Listener.ReadHeaderTimeout = time.Duration(readHeaderTimeoutSecs) * time.Second
			if v := cmd.Root().Version; v != "" {
				cfg.Version = v
			}
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, readHeaderTimeoutSecs *int) []cli.Flag {
	return []cli.Flag{

		// ── Journal ───────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "journal",
			Category:    "Journal:",
			Sources:     cli.EnvVars("CHAT_SERVER_JOURNAL"),
			Destination: &cfg.JournalPath,
			Value:       cfg.JournalPath,
			Usage:       "Path of the append-only transaction journal",
		},
		&cli.IntFlag{
			Name:        "journal-queue-size",
			Category:    "Journal:",
			Sources:     cli.EnvVars("CHAT_SERVER_JOURNAL_QUEUE_SIZE"),
			Destination: &cfg.JournalQueueSize,
			Value:       cfg.JournalQueueSize,
			Usage:       "Records that may wait for the journal writer before requests block",
		},
		&cli.BoolFlag{
			Name:        "journal-sync",
			Category:    "Journal:",
			Sources:     cli.EnvVars("CHAT_SERVER_JOURNAL_SYNC"),
			Destination: &cfg.JournalSync,
			Usage:       "fsync the journal after every record",
		},

		// ── Server ────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "server-id",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_ID"),
			Destination: &cfg.ServerID,
			Usage:       "Seed mixed into generated identifiers; defaults to the host name",
		},
		&cli.IntFlag{
			Name:        "read-header-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_READ_HEADER_TIMEOUT_SECONDS"),
			Destination: readHeaderTimeoutSecs,
			Value:       *readHeaderTimeoutSecs,
			Usage:       "HTTP read header timeout in seconds",
		},
		&cli.IntFlag{
			Name:        "drain-timeout",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_DRAIN_TIMEOUT"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Seconds allowed on shutdown for requests and queued journal records",
		},
		&cli.Int64Flag{
			Name:        "max-body-size",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_MAX_BODY_SIZE"),
			Destination: &cfg.MaxBodySize,
			Value:       cfg.MaxBodySize,
			Usage:       "Maximum request body size in bytes",
		},
		&cli.BoolFlag{
			Name:        "access-log",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_ACCESS_LOG"),
			Destination: &cfg.AccessLog,
			Value:       cfg.AccessLog,
			Usage:       "Log every HTTP request (health, ready and metrics are never logged)",
		},
		&cli.BoolFlag{
			Name:        "cors",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_CORS_ENABLED"),
			Destination: &cfg.CORSEnabled,
			Usage:       "Answer CORS preflight requests",
		},
		&cli.StringFlag{
			Name:        "cors-origins",
			Category:    "Server:",
			Sources:     cli.EnvVars("CHAT_SERVER_CORS_ORIGINS"),
			Destination: &cfg.CORSOrigins,
			Usage:       "Comma-separated allowed origins; empty allows any",
		},

		// ── Network Listener ──────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("CHAT_SERVER_PORT"),
			Destination: &cfg.Listener.Port,
			Value:       cfg.Listener.Port,
			Usage:       "HTTP server port",
		},

		// ── Monitoring ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("CHAT_SERVER_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       "service=chat-server",
			Usage:       "Comma-separated key=value pairs added as constant labels to all Prometheus metrics. Supports ${VAR} expansion.",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.DrainDuration())
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}
