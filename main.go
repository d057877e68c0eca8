package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autosave/config"
	handlers "autosave/handler"
	docHandler "autosave/internal/document"
	"autosave/internal/document/repository"
	"autosave/internal/document/service"
	"autosave/middleware"
	"autosave/pkg/logger"
	"autosave/router"
	"autosave/socket"
	"autosave/watcher"
)

func main() {
	cfg, envLoaded, err := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	if err != nil {
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}
	if !envLoaded {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}
	if cfg.EditToken == "changeme" {
		logger.Sugar.Warn("EDIT_TOKEN is the default value; set EDIT_TOKEN before exposing this server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Sugar.Fatalf("Failed to create data directory %s: %v", cfg.DataDir, err)
	}

	repo := repository.NewDocumentRepository(cfg.DataFile(), cfg.YearFile(), cfg.DefaultFile)
	if seeded, err := repo.Seed(); err != nil {
		logger.Sugar.Warnf("Could not seed document from %s: %v", cfg.DefaultFile, err)
	} else if seeded {
		logger.Sugar.Infof("Seeded %s from %s", cfg.DataFile(), cfg.DefaultFile)
	}

	// The hub and watcher only exist when live updates are on; the service
	// must see a nil Publisher otherwise.
	var hub *socket.Hub
	var publisher service.Publisher
	if cfg.LiveUpdates {
		hub = socket.NewHub(repo.GetDocument)
		publisher = hub
		go hub.Run(ctx)
	}

	svc := service.NewDocumentService(repo, publisher, cfg.EditToken, cfg.ReadOnly())

	if hub != nil {
		w, err := watcher.New(cfg.DataFile(), watcher.DefaultSettleDelay, func() {
			if err := svc.Refresh(); err != nil {
				logger.Sugar.Errorf("Error parsing changed %s: %v", cfg.DataFile(), err)
			}
		})
		if err != nil {
			logger.Sugar.Warnf("File watcher disabled: %v", err)
		} else {
			go w.Run(ctx)
		}
	}

	static, err := handlers.NewStaticHandler(cfg.StaticDir)
	if err != nil {
		logger.Sugar.Fatalf("Invalid static directory %s: %v", cfg.StaticDir, err)
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(router.Deps{
			Documents:  docHandler.NewDocumentHandler(svc, cfg.MaxBodyBytes),
			Static:     static,
			Hub:        hub,
			Limiter:    middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
			TrustProxy: cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Sugar.Errorf("Shutdown error: %v", err)
		}
	}()

	logger.Sugar.Infow("Server running",
		"addr", cfg.Addr(),
		"data_file", cfg.DataFile(),
		"year_file", cfg.YearFile(),
		"static_dir", static.Root,
		"mode", cfg.EditMode,
		"live_updates", cfg.LiveUpdates,
		"trust_proxy", cfg.TrustProxy,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server error: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}
