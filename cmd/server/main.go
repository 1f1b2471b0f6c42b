package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inpatient-room-catalog/internal/config"
	"inpatient-room-catalog/internal/database"
	"inpatient-room-catalog/internal/feed"
	"inpatient-room-catalog/internal/handler"
	"inpatient-room-catalog/internal/logger"
	"inpatient-room-catalog/internal/metrics"
	"inpatient-room-catalog/internal/middleware"
	"inpatient-room-catalog/internal/reconcile"
	"inpatient-room-catalog/internal/repository"
	"inpatient-room-catalog/internal/service"
	"inpatient-room-catalog/internal/snapshot"
	"inpatient-room-catalog/pkg/utils"
)

const serviceName = "inpatient-room-catalog"

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	log.Info("Configuration loaded successfully", zap.String("catalog_source", cfg.Feeds.CatalogSource))

	// 2. Initialize JWT validation for admin routes
	utils.InitJWT(cfg.JWT.AccessSecret)

	// 3. Feed clients
	validator := feed.NewValidator(log)
	feedClient := feed.NewHTTPClient(feed.HTTPConfig{
		CatalogURL:      cfg.Feeds.CatalogURL,
		AvailabilityURL: cfg.Feeds.AvailabilityURL,
		RoomsURL:        cfg.Feeds.RoomsURL,
		Timeout:         cfg.Feeds.Timeout,
		RetryCount:      cfg.Feeds.RetryCount,
	}, validator, log)

	// 4. Optional database: catalog source and ambiguity review log
	var ambiguityStore service.AmbiguityStore
	var catalogRepo *repository.CatalogRepository
	if cfg.Database.Enabled {
		db, err := database.Connect(cfg, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		ambiguityStore = repository.NewAmbiguityRepo(db)
		catalogRepo = repository.NewCatalogRepo(db, validator)
	}

	sources := service.CatalogSources{
		Availability: feedClient,
		Rooms:        feedClient,
	}
	switch cfg.Feeds.CatalogSource {
	case config.CatalogSourceDatabase:
		sources.Catalog = catalogRepo
	case config.CatalogSourceFile:
		sources.Catalog = feed.NewFileCatalog(cfg.Feeds.CatalogFile, validator)
	default:
		sources.Catalog = feedClient
	}
	if cfg.Feeds.FallbackCatalogFile != "" {
		sources.Fallback = feed.NewFileCatalog(cfg.Feeds.FallbackCatalogFile, validator)
	}

	// 5. Optional redis for last-good snapshots
	var store snapshot.Store = snapshot.NopStore{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, snapshots will not survive restarts", zap.Error(err))
		} else {
			store = snapshot.NewRedisStore(client, cfg.Redis.SnapshotTTL)
			log.Info("Snapshot store connected", zap.String("addr", cfg.Redis.Addr))
		}
		cancelPing()
	}

	// 6. Building appearance
	defaultLook := reconcile.Appearance{Color: cfg.Appearance.DefaultColor, Image: cfg.Appearance.DefaultImage}
	appearance := reconcile.NewAppearanceTable(defaultLook, nil)
	if cfg.Appearance.File != "" {
		appearance, err = reconcile.LoadAppearanceFile(cfg.Appearance.File, defaultLook)
		if err != nil {
			log.Fatal("Failed to load appearance file", zap.Error(err))
		}
	}

	// 7. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// 8. Initialize services
	ambiguityService := service.NewAmbiguityService(ambiguityStore, log)
	catalogService := service.NewCatalogService(sources, store, appearance, ambiguityService, m, log)
	sessionService := service.NewSessionService(catalogService, cfg.Session.TTL, m, log)
	catalogService.Subscribe(sessionService.OnGeneration)
	pollerService := service.NewPollerService(catalogService, cfg.Poller.LiveInterval, cfg.Poller.CatalogInterval, m, log)

	// 9. Restore snapshots, then start background work
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogService.Restore(ctx)

	pollerDone := make(chan struct{})
	go func() {
		pollerService.Start(ctx)
		close(pollerDone)
	}()
	go sessionService.Sweep(ctx, time.Minute)

	// 10. Setup Gin router
	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORS))

	catalogHandler := handler.NewCatalogHandler(catalogService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	adminHandler := handler.NewAdminHandler(catalogService, ambiguityService, pollerService)

	// 11. Define routes
	r.GET("/health", func(c *gin.Context) {
		gen := catalogService.Current()
		utils.SuccessResponse(c, gin.H{
			"status":     "healthy",
			"service":    serviceName,
			"generation": gen.Seq,
			"buildings":  len(gen.Buildings),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.GET("/buildings", catalogHandler.ListBuildings)
		api.GET("/buildings/:id", catalogHandler.GetBuilding)
		api.GET("/buildings/:id/classes/:class/rooms", catalogHandler.GetRooms)

		sessions := api.Group("/sessions")
		sessions.POST("", sessionHandler.Create)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.DELETE("/:id", sessionHandler.Delete)
		sessions.POST("/:id/building", sessionHandler.SelectBuilding)
		sessions.POST("/:id/class", sessionHandler.SelectClass)
		sessions.POST("/:id/room", sessionHandler.SelectRoom)
		sessions.POST("/:id/back", sessionHandler.Back)
		sessions.POST("/:id/reset", sessionHandler.Reset)
		sessions.GET("/:id/rooms", sessionHandler.Rooms)

		// Admin-only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
		admin.GET("/feeds", adminHandler.GetFeeds)
		admin.GET("/ambiguities", adminHandler.ListAmbiguities)
		admin.POST("/refresh", adminHandler.Refresh)
	}

	// 12. Setup graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop the poller and wait for in-flight fetches to drop their results
	cancel()
	<-pollerDone
	log.Info("Server exited")
}
