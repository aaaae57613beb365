package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"healther/app/internal/auth"
	"healther/app/internal/cache"
	"healther/app/internal/checker"
	"healther/app/internal/config"
	"healther/app/internal/database"
	"healther/app/internal/handlers"
	"healther/app/internal/health"
	"healther/app/internal/metrics"
	"healther/app/internal/models"
	"healther/app/internal/monitor"
	"healther/app/internal/security"
	"healther/app/internal/seed"
	"healther/app/internal/ws"
)

// pruneInterval is how often old events and activity are deleted
const pruneInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	security.TrustProxy = cfg.TrustProxy

	// Initialize database
	if err := database.Init(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if cfg.SeedFile != "" {
		applySeed(cfg.SeedFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed := cache.New[[]models.CheckEvent](cfg.PublicCacheTTL)
	defer feed.Stop()

	m := metrics.New()
	srv := &handlers.Server{
		Auth:           auth.NewAuth(cfg.AuthSecret, cfg.TokenTTL),
		Metrics:        m,
		Themes:         database.SettingsStore{},
		Client:         checker.NewClient(cfg.CheckTimeout),
		Tracker:        monitor.NewTracker(),
		Feed:           feed,
		UptimeDays:     cfg.UptimeDays,
		LatencySamples: cfg.LatencySamples,
		Canvas:         health.DefaultCanvas,
	}
	srv.Hub = ws.New(srv.PublicBoard, cfg.WSInterval, m)
	go srv.Hub.Run(ctx)
	go runPruner(ctx, cfg.EventRetention, m)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           security.SecureHeaders(srv.SetupRoutes(handlers.DefaultLimiters())),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Probes run inside requests, so leave room for the check timeout
		WriteTimeout: cfg.CheckTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// applySeed bootstraps users, workspaces and watchers from a YAML file
func applySeed(path string) {
	f, err := seed.Load(path)
	if err != nil {
		log.Fatalf("Failed to load seed file: %v", err)
	}
	res, err := seed.Apply(f)
	if err != nil {
		log.Fatalf("Failed to apply seed file: %v", err)
	}
	log.Printf("Seed applied from %s: %+v", path, res)
}

// runPruner deletes events and activity older than retention until ctx is
// cancelled
func runPruner(ctx context.Context, retention time.Duration, m *metrics.Metrics) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		prune(time.Now().Add(-retention), m)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func prune(before time.Time, m *metrics.Metrics) {
	n, err := database.PruneEvents(before)
	if err != nil {
		log.Printf("Warning: Failed to prune events: %v", err)
	} else if n > 0 {
		log.Printf("Pruned %d events older than %s", n, before.Format(time.RFC3339))
	}
	m.EventsPruned(n)

	if _, err := database.PruneLogs(before); err != nil {
		log.Printf("Warning: Failed to prune activity log: %v", err)
	}
}
