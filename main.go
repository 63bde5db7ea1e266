package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sola-docstore/internal/cache"
	"sola-docstore/internal/filesystem"
	"sola-docstore/internal/handlers"
	"sola-docstore/internal/logging"
	"sola-docstore/internal/memory"
	"sola-docstore/internal/metrics"
	"sola-docstore/internal/middleware"
	"sola-docstore/internal/scans"
	"sola-docstore/internal/startup"
	"sola-docstore/internal/thumbnail"
	"sola-docstore/internal/workers"

	"github.com/gorilla/mux"
)

const (
	maxThumbnailWorkers = 8
	statsInterval       = time.Minute
)

func main() {
	startTime := time.Now()

	v := startup.NewViper()
	if level, ok := logging.ParseLevel(v.GetString(startup.KeyLogLevel)); ok {
		logging.SetLevel(level)
	}

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig(v)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	if level, ok := logging.ParseLevel(config.LogLevel); ok {
		logging.SetLevel(level)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"cache": config.CacheDir,
		"scans": config.ScanDir,
	}))
	if config.MetricsEnabled {
		filesystem.SetObserver(metrics.NewFilesystemObserver())
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	}

	// Document cache
	var cacheOpts []cache.Option
	if config.MetricsEnabled {
		cacheOpts = append(cacheOpts, cache.WithObserver(metrics.NewCacheObserver()))
	}
	mgr, err := cache.New(cache.Config{
		Root:         config.CacheDir,
		MaxBytes:     config.CacheMaxBytes,
		ResizedBytes: config.CacheResizedBytes,
	}, cacheOpts...)
	if err != nil {
		startup.LogFatal("Failed to initialize document cache: %v", err)
	}
	startup.LogCacheInit(mgr.Root(), mgr.KnownBytes())

	// Thumbnail pipeline
	if err := thumbnail.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer thumbnail.ShutdownVips()

	var pipelineOpts []thumbnail.PipelineOption
	if config.MetricsEnabled {
		pipelineOpts = append(pipelineOpts, thumbnail.WithObserver(metrics.NewThumbnailObserver()))
	}
	pipeline := thumbnail.NewPipeline(nil, pipelineOpts...)
	poolSize := workers.ForCPU(config.ThumbnailWorkers, maxThumbnailWorkers)
	pool := thumbnail.NewPool(pipeline, poolSize, config.ThumbnailTimeout)
	metrics.ThumbnailWorkers.Set(float64(poolSize))
	startup.LogThumbnailInit(thumbnail.IsVipsAvailable(), poolSize, pipeline.Registry().Extensions())

	// Scan folder janitor
	var janitor *scans.Janitor
	if config.CleanScanFolder {
		var janitorOpts []scans.Option
		if config.MetricsEnabled {
			janitorOpts = append(janitorOpts, scans.WithObserver(metrics.NewScansObserver()))
		}
		janitor, err = scans.NewJanitor(scans.Config{
			Dir:      config.ScanDir,
			Lifetime: config.ScanLifetime,
			Interval: config.ScanPollPeriod,
		}, janitorOpts...)
		if err != nil {
			startup.LogFatal("Failed to configure scan folder janitor: %v", err)
		}
		janitor.Start()
	}
	startup.LogJanitorInit(janitor != nil, config.ScanDir, config.ScanLifetime)

	var memoryOpts []memory.Option
	if config.MetricsEnabled {
		memoryOpts = append(memoryOpts, memory.WithObserver(metrics.NewMemoryObserver()))
	}
	memMonitor := memory.NewMonitor(memory.DefaultConfig(), memoryOpts...)
	metrics.MemoryLimitBytes.Set(float64(memMonitor.Limit()))
	memMonitor.Start()

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(mgr, statsInterval)
		collector.Start()
	}

	h := handlers.New(mgr, pool, pipeline.Registry().Supports, config.ScanDir)
	h.SetMemoryGuard(memMonitor.UnderPressure)
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.Logger(loggingConfig)(router),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      config.ThumbnailTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, janitor, memMonitor, collector)
		close(done)
	}()

	h.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()
	if metricsEnabled {
		r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}

	// Health checks
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods("GET")
	api.HandleFunc("/cache/stats", h.GetCacheStats).Methods("GET")
	api.HandleFunc("/scans", h.ListScans).Methods("GET")
	api.HandleFunc("/scans/{name}/thumbnail", h.GetScanThumbnail).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	return r
}

func handleShutdown(srv *http.Server, janitor *scans.Janitor, memMonitor *memory.Monitor, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if janitor != nil {
		startup.LogShutdownStep("Stopping scan folder janitor")
		janitor.Stop()
		startup.LogShutdownStepComplete("Scan folder janitor stopped")
	}

	startup.LogShutdownStep("Stopping background monitors")
	memMonitor.Stop()
	if collector != nil {
		collector.Stop()
	}
	startup.LogShutdownStepComplete("Background monitors stopped")

	startup.LogShutdownComplete()
}
