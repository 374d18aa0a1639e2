package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Unpiloted0852/TrashCompass/pkg/config"
	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
	"github.com/Unpiloted0852/TrashCompass/pkg/overpass"
	"github.com/Unpiloted0852/TrashCompass/pkg/resolver"
	"github.com/Unpiloted0852/TrashCompass/pkg/session"
)

// Global application directories (resolved at startup).
// Set once in main() via command-line flags or XDG rules.
var configDir string
var cacheDir string

func main() {
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	configFlag := flag.String("config", "", "path to config.yaml (overrides XDG config dir)")
	configDirFlag := flag.String("config-dir", "", "custom config directory (overrides XDG_CONFIG_HOME)")
	cacheDirFlag := flag.String("cache-dir", "", "custom cache directory (overrides XDG_CACHE_HOME)")
	flag.Parse()

	if *configDirFlag != "" {
		configDir = *configDirFlag
	}
	if *cacheDirFlag != "" {
		cacheDir = *cacheDirFlag
	}
	if err := ensureDir(effectiveCacheDir()); err != nil {
		logger.Error("Failed to create cache dir %s: %v", effectiveCacheDir(), err)
	}

	// Precedence: --config flag > config.yaml in the config dir > defaults.
	configPath := *configFlag
	if configPath == "" {
		candidate := filepath.Join(effectiveConfigDir(), "config.yaml")
		if fileExists(candidate) {
			configPath = candidate
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config %s: %v", configPath, err)
	}
	logger.SetDebug(cfg.Debug || *debugFlag)

	ctrl := session.New(session.Config{
		Resolver: resolver.New(cfg.Resolver.RemoteEndpoint, cfg.Search.UserAgent, nil),
		Searcher: overpass.NewClient(overpass.Options{
			Endpoints: cfg.Search.Endpoints,
			Rounds:    cfg.Search.RetryRounds,
			UserAgent: cfg.Search.UserAgent,
			HTTP: overpass.NewHTTPClient(
				time.Duration(cfg.Search.ConnectSeconds)*time.Second,
				time.Duration(cfg.Search.ReadSeconds)*time.Second,
			),
		}),
		RadiusMeters: cfg.Search.RadiusMeters,
	})

	initHistoryDB()
	configureGeocode(cfg.Suggest.NominatimServer, cfg.Suggest.TransientRetries)

	location := startLocationTracking("trashcompass.desktop", ctrl.OnPositionFix, ctrl.OnPermissionDenied)
	compass := startCompassTracking(ctrl.OnOrientationSample)

	mux := http.NewServeMux()
	RegisterAPI(mux, ctrl, cfg.Units == "metric", cfg.Search.RadiusMeters)
	server := &http.Server{Addr: cfg.API.ListenAddr, Handler: mux}
	go func() {
		logger.Info("API listening on http://%s/api/status", cfg.API.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("API server error on %s: %v", cfg.API.ListenAddr, err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down on %s", sig)

	location.stop()
	compass.stop()
	ctrl.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
