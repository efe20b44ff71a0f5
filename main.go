package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/questd/api/rest"
	"github.com/kasuganosora/questd/api/sse"
	"github.com/kasuganosora/questd/audit"
	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/config"
	dbadapter "github.com/kasuganosora/questd/db"
	"github.com/kasuganosora/questd/game/catalog"
	"github.com/kasuganosora/questd/game/item"
	"github.com/kasuganosora/questd/game/mission"
	"github.com/kasuganosora/questd/game/player"
	"github.com/kasuganosora/questd/game/species"
	mw "github.com/kasuganosora/questd/middleware"
	"github.com/kasuganosora/questd/model"
	"github.com/kasuganosora/questd/plugin/hook"
	"github.com/kasuganosora/questd/resource"
	"github.com/kasuganosora/questd/scheduler"
	"go.uber.org/zap"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, cfg.Mission.AuditFlushInterval, logger)
	defer auditSvc.Stop()

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Catalog data ----
	templates := catalog.New(db, c, cfg.Mission.TemplateCacheTTL, logger)
	res := resource.NewLoader(cfg.Data.Path, logger)
	reload := func(ctx context.Context) error {
		if err := res.Load(); err != nil {
			return err
		}
		if err := res.Import(ctx, db); err != nil {
			return err
		}
		return templates.Invalidate(ctx, res.TemplateIDs()...)
	}
	if err := reload(ctx); err != nil {
		logger.Warn("catalog load failed, serving what the database already holds", zap.Error(err))
	}

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if cfg.Data.ReloadInterval > 0 {
		sched.Every("catalog_reload", cfg.Data.ReloadInterval, reload)
	}

	// ---- Services ----
	hooks := hook.NewHookCenter(logger)
	inventory := item.NewInventoryService(db, logger)
	missionSvc := mission.NewService(db,
		templates,
		player.NewStore(),
		inventory,
		species.NewDefaultProvider(db, c, cfg.Mission.SpeciesCacheTTL, logger),
		logger,
		mission.WithRand(mission.NewRand(cfg.Mission.RNGSeed)),
		mission.WithEvents(pubsub, cfg.Mission.EventChannel),
		mission.WithAudit(auditSvc),
		mission.WithHooks(hooks),
	)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	// EventSource cannot set headers, so the stream authenticates itself.
	api.GET("/missions/events", sse.NewHandler(pubsub, cfg.Mission.EventChannel, cfg.Security, logger).ServeSSE)
	apirest.Mount(api, cfg,
		apirest.NewMissionHandler(missionSvc, logger),
		apirest.NewInventoryHandler(inventory, logger),
		apirest.NewAdminHandler(missionSvc, sched, reload, logger),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
