package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/config"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/ident"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/journal"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/conversations"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/interests"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/memberships"
	routesystem "github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/system"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/plugin/route/users"
	registryroute "github.com/nikkibisarya/CodeU-Summer-2017/internal/registry/route"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/store"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config      *config.Config
	Controller  *controller.Controller
	Journal     *journal.Writer
	Router      *gin.Engine
	Running     *RunningListener
	ReplayStats *journal.ReplayStats
}

// Shutdown stops the listener, then drains the journal queue.
func (s *Server) Shutdown(ctx context.Context) error {
	routesystem.MarkNotReady()
	var result *multierror.Error
	if err := s.Running.Close(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.Journal.Close(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// StartServer replays the journal into a fresh controller, starts the journal
// writer and then begins serving. Use cfg.Listener.Port=0 for a random port;
// the actual port is Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	journalPath := cfg.ResolvedJournalPath()
	log.Info("Starting chat server",
		"httpPort", cfg.Listener.Port,
		"journal", journalPath,
		"journalSync", cfg.JournalSync,
	)
	startedAt := time.Now()

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	seed := ident.SeedFromString(cfg.ServerID)
	writer := journal.NewWriter(journalPath, journal.Options{
		QueueSize: cfg.JournalQueueSize,
		Sync:      cfg.JournalSync,
	})
	ctl := controller.New(store.New(), ident.NewGenerator(seed), writer)

	// Replay must finish before the writer starts; nothing else touches the
	// file until then.
	stats, err := ctl.Replay(journalPath)
	if err != nil {
		log.Error("Journal could not be read, starting with empty state", "journal", journalPath, "err", err)
	}
	writer.Start()

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.AccessLog {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}
	router.Use(security.IdentityMiddleware())
	router.Use(security.AuditMiddleware())

	for _, loader := range registryroute.Loaders() {
		if err := loader(router); err != nil {
			_ = writer.Close(ctx)
			return nil, fmt.Errorf("failed to load routes: %w", err)
		}
	}
	users.MountRoutes(router, ctl)
	conversations.MountRoutes(router, ctl)
	memberships.MountRoutes(router, ctl)
	interests.MountRoutes(router, ctl)
	routesystem.MountRoutes(router, routesystem.Info{
		Version:   cfg.Version,
		ServerID:  seed,
		StartedAt: startedAt,
	})

	running, err := startListener(cfg.Listener, router)
	if err != nil {
		_ = writer.Close(ctx)
		return nil, err
	}

	log.Info("Server listening", "port", running.Port, "serverId", seed)

	routesystem.MarkReady()
	return &Server{
		Config:      cfg,
		Controller:  ctl,
		Journal:     writer,
		Router:      router,
		Running:     running,
		ReplayStats: stats,
	}, nil
}
