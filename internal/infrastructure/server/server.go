package server

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/api/middleware"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/history"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/http"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/netprobe"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
	browserProvider "github.com/GriffinCanCode/QuantumBrowser/backend/internal/providers/browser"
	quantumProvider "github.com/GriffinCanCode/QuantumBrowser/backend/internal/providers/quantum"
	systemProvider "github.com/GriffinCanCode/QuantumBrowser/backend/internal/providers/system"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/service"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/solver"
)

const (
	probeTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	http      *nethttp.Server
	registry  *service.Registry
	bridge    *quantum.Bridge
	history   history.Store
	collector *performance.Collector
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing optimization bridge server",
		zap.String("port", cfg.Server.Port),
		zap.String("bridge_mode", cfg.Bridge.Mode),
	)

	// Metrics first; the bridge reports into them
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	store, err := history.Open(context.Background(), cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	profile := performance.DefaultProfile()
	if cfg.Profile.Path != "" {
		if profile, err = performance.LoadProfile(cfg.Profile.Path); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Loaded optimizer profile", zap.String("path", cfg.Profile.Path))
	} else {
		profile.Schedule.Layers = cfg.Bridge.Layers
	}

	// Host sampling is optional outside Linux
	var hostSampler performance.SystemSampler
	var connCounter netprobe.ConnectionCounter
	if proc, err := performance.NewProcSampler(); err != nil {
		logger.Warn("Host load sampling disabled", zap.Error(err))
	} else {
		hostSampler = proc
		connCounter = proc
	}

	sysProvider := systemProvider.NewProvider(hostSampler)
	bridge := newBridge(cfg.Bridge, profile.Schedule, logger, metrics, store, sysProvider)

	perfStore := performance.NewStore()
	network := performance.NewNetworkOptimizer(perfStore, bridge, profile, cfg.Collector.Window, logger.Component("network"))
	pages := performance.NewPageLoadOptimizer(bridge, logger.Component("pageload"))
	probe := netprobe.NewClient(netprobe.DefaultConfig())

	var collector *performance.Collector
	if cfg.Collector.Enabled {
		var netSampler performance.NetworkSampler
		if cfg.Collector.ProbeURL != "" || connCounter != nil {
			netSampler = netprobe.NewSampler(probe, cfg.Collector.ProbeURL, connCounter, logger.Component("netprobe"))
		}
		collector = performance.NewCollector(perfStore, netSampler, hostSampler, network, performance.CollectorConfig{
			NetworkInterval:  cfg.Collector.NetworkInterval,
			SystemInterval:   cfg.Collector.SystemInterval,
			OptimizeInterval: cfg.Collector.OptimizeInterval,
		}, logger.Component("collector"))
	}

	// Service registry
	serviceRegistry := service.NewRegistry()
	logger.Info("Registering service providers...")
	registerProviders(serviceRegistry, logger,
		quantumProvider.NewProvider(bridge, store, logger.Component("quantum")),
		browserProvider.New(browserProvider.Config{
			Pages:   pages,
			Network: network,
			Store:   perfStore,
			Fetcher: probe,
			Window:  cfg.Collector.Window,
			Logger:  logger.Component("browser"),
		}),
		sysProvider,
	)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := http.NewHandlers(http.Deps{
		Registry: serviceRegistry,
		Bridge:   bridge,
		History:  store,
		Store:    perfStore,
		Network:  network,
		Pages:    pages,
		Fetcher:  probe,
		Metrics:  metrics,
		Window:   cfg.Collector.Window,
		Logger:   logger.Component("api"),
	})
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		registry:  serviceRegistry,
		bridge:    bridge,
		history:   store,
		collector: collector,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Router returns the configured gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run probes the backend, starts metric collection and serves HTTP until
// ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.probe(ctx)
	if s.collector != nil {
		s.collector.Start(ctx)
	}

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.collector != nil {
		s.collector.Stop()
	}

	var errs []error
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if err := s.history.Close(); err != nil {
		s.logger.Error("Failed to close history", zap.Error(err))
		errs = append(errs, err)
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// probe runs one small request so a broken primary backend shows up at
// startup instead of on the first user request.
func (s *Server) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	primary, err := s.bridge.Probe(ctx)
	switch {
	case err != nil:
		s.logger.Error("Backend probe failed; allocations will use the classical optimizer", zap.Error(err))
	case !primary:
		s.logger.Warn("Backend probe answered on the fallback variant")
	default:
		s.logger.Info("Backend probe succeeded", zap.String("variant", s.bridge.State().Variant))
	}
}

func newBridge(cfg config.BridgeConfig, schedule problem.Schedule, logger *logging.Logger, metrics *monitoring.Metrics, store history.Store, events *systemProvider.Provider) *quantum.Bridge {
	var backend quantum.Backend
	switch cfg.Mode {
	case config.ModeSimulator:
		backend = quantum.NewSimulator(solver.New(uint64(time.Now().UnixNano())))
		logger.Info("Using in-process simulator backend")
	default:
		backend = quantum.NewProcessAdapter(quantum.ProcessConfig{
			Executable:    cfg.Executable,
			PrimaryEntry:  cfg.PrimaryEntry,
			FallbackEntry: cfg.FallbackEntry,
			Timeout:       cfg.Timeout,
		}, logger.Component("adapter"))
		logger.Info("Using process backend", zap.String("executable", cfg.Executable))
	}

	bridgeLog := logger.Component("bridge")
	sup := quantum.NewSupervisor(resilience.Settings{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
		OnVariantChange: func(name string, from, to resilience.Variant) {
			events.Record("warn", "Backend variant changed", map[string]interface{}{
				"supervisor": name,
				"from":       from.String(),
				"to":         to.String(),
			})
		},
	}, bridgeLog, metrics)

	record := history.Observer(store, bridgeLog)
	return quantum.NewBridge(backend, sup, quantum.Options{
		Shots:    cfg.Shots,
		Schedule: schedule,
		Logger:   bridgeLog,
		Recorder: metrics,
		OnAllocation: func(resources []float64, out *quantum.Outcome) {
			record(resources, out)
			if out.Source == quantum.SourceClassical {
				events.Record("warn", "Allocation served by classical optimizer", map[string]interface{}{
					"variables": len(resources),
				})
			}
		},
	})
}

func registerProviders(registry *service.Registry, logger *logging.Logger, providers ...service.Provider) {
	for _, p := range providers {
		def := p.Definition()
		if err := registry.Register(p); err != nil {
			logger.Warn("Failed to register provider", zap.String("service", def.ID), zap.Error(err))
			continue
		}
		logger.Debug("Registered provider", zap.String("service", def.ID), zap.Int("tools", len(def.Tools)))
	}

	stats := registry.Stats()
	logger.Info("Service providers registered",
		zap.Any("services", stats["total_services"]),
		zap.Any("tools", stats["total_tools"]),
	)
}
