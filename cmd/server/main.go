package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/stwalsh4118/propmap/internal/backend"
	"github.com/stwalsh4118/propmap/internal/config"
	"github.com/stwalsh4118/propmap/internal/database"
	"github.com/stwalsh4118/propmap/internal/geocode"
	"github.com/stwalsh4118/propmap/internal/handlers"
	"github.com/stwalsh4118/propmap/internal/logger"
	"github.com/stwalsh4118/propmap/internal/mapview"
	"github.com/stwalsh4118/propmap/internal/models"
	"github.com/stwalsh4118/propmap/internal/repository"
	"github.com/stwalsh4118/propmap/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting propmap API", map[string]interface{}{
		"version":         handlers.APIVersion,
		"environment":     cfg.Server.Env,
		"port":            cfg.Server.Port,
		"property_source": cfg.Backend.PropertySource,
		"backend_url":     cfg.Backend.URL,
	})

	ctx := context.Background()

	backendClient := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, log.WithComponent("backend"))
	checks := map[string]handlers.Pinger{"backend": backendClient}

	var properties services.PropertySource = backendClient
	if cfg.UsesPostgres() {
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		properties = repository.NewPropertyRepository(db)
		checks["database"] = db
	}

	deps := services.Dependencies{
		Properties: properties,
		Regions:    backendClient,
	}
	if cfg.Geocoder.Enabled {
		deps.Geocoder = geocode.NewClient(geocode.Config{
			BaseURL:    cfg.Geocoder.URL,
			UserAgent:  cfg.Geocoder.UserAgent,
			RatePerSec: cfg.Geocoder.RatePerSec,
			Timeout:    cfg.Geocoder.Timeout,
		}, log.WithComponent("geocoder"))
	}

	store := services.NewStore(services.SessionConfig{
		Map: mapview.Config{
			Center:       models.LatLng{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng},
			DefaultZoom:  cfg.Map.DefaultZoom,
			SelectZoom:   cfg.Map.SelectZoom,
			FitPadding:   cfg.Map.FitPadding,
			HighlightTTL: cfg.Search.HighlightTTL,
		},
		RegionTimeout: cfg.Backend.RegionTimeout,
		Debounce:      cfg.Search.Debounce,
		QueueSize:     cfg.Map.QueueSize,
		Preload:       cfg.Backend.Preload,
	}, deps, cfg.Session.IdleTimeout, log)
	defer store.Close()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Log:         log,
		Sessions:    store,
		Health:      handlers.NewHealthHandler(cfg.Server.Env, checks, store),
		CORSOrigins: cfg.CORS.Origins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           gzhttp.GzipHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
