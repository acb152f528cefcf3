package entrypoint

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
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/users"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/logger"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log *zap.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before background workers go away.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("starting bookshelf", zap.String("version", version))

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), log)

	stores := services.NewStores(db.DB)
	importService := services.NewImportService(stores, cfg.Import.DefaultShelf, log).
		WithSessions(db).
		WithAuditor(auditService)
	if cfg.Import.ArchivePayloads {
		importService = importService.WithArchiver(audit.NewArchiver(cfg.Audit.Dir, log))
		log.Info("archiving import payloads", zap.String("dir", cfg.Audit.Dir))
	}
	exportService := services.NewExportService(stores, log).WithAuditor(auditService)

	// Task queue and audit retention
	var (
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
		retentionJob  scheduler.RetentionJob
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks), log)
		if err != nil {
			log.Fatal("failed to initialize task queue", zap.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewImportSnapshotQueue(importService, log),
			tasks.NewCleanupAuditEventsQueue(auditService, log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		retentionJob = scheduler.EnqueueCleanupJob(taskClient)
	} else {
		retentionJob = scheduler.DirectCleanupJob(auditService, log)
	}

	retention := scheduler.NewAuditRetentionScheduler(cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, retentionJob, log)
	if err := retention.Start(context.Background()); err != nil {
		log.Fatal("failed to start audit retention scheduler", zap.Error(err))
	}

	var authMiddleware *auth.Middleware
	switch cfg.Auth.Mode {
	case config.AuthModeToken:
		log.Info("authentication mode: token")
		authMiddleware = auth.NewMiddleware(users.NewRepository(db.DB), cfg.Auth)
	default:
		log.Info("authentication mode: none", zap.Uint("user_id", cfg.Auth.DefaultUserID))
	}

	routerCfg := http_controllers.RouterConfig{
		Importer:           importService,
		Exporter:           exportService,
		Database:           db,
		Sessions:           db,
		AuthMiddleware:     authMiddleware,
		DefaultUserID:      cfg.Auth.DefaultUserID,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		MaxImportBytes:     cfg.Import.MaxBytes,
		Version:            version,
		Logger:             log,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		retention.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
	}

	Serve(router, cfg, log, onShutdown)
}
