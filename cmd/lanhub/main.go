package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lanhub-app/lanhub/internal/app"
	"github.com/lanhub-app/lanhub/internal/audit"
	"github.com/lanhub-app/lanhub/internal/auth"
	"github.com/lanhub-app/lanhub/internal/menu"
	"github.com/lanhub-app/lanhub/internal/observability"
	"github.com/lanhub-app/lanhub/internal/platform/cache"
	"github.com/lanhub-app/lanhub/internal/platform/db"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/roles"
	"github.com/lanhub-app/lanhub/internal/settings"
	"github.com/lanhub-app/lanhub/internal/shared"
	"github.com/lanhub-app/lanhub/internal/system"
	"github.com/lanhub-app/lanhub/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "lanhub_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	registry := rbac.NewRegistry()
	rbacRepo := rbac.NewRepository(dbpool)
	if err := rbacRepo.Mirror(ctx, registry); err != nil {
		logger.Error("mirror permission registry", slog.Any("error", err))
		os.Exit(1)
	}
	guard := rbac.NewGuard(rbacRepo)

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	rbacMiddleware := rbac.Middleware{Guard: guard, Principals: usersRepo, Logger: logger, OnDeny: metrics.AccessDenied}

	settingsCache := settings.NewCache(redisClient, cfg.SettingsCacheTTL)
	settingsCache.OnHit = metrics.SettingsCacheHit
	settingsCache.OnMiss = metrics.SettingsCacheMiss
	settingsRepo := settings.NewRepository(dbpool)
	settingsService := settings.NewService(settingsRepo, settingsCache)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, registry)

	menuService := menu.NewService(settingsService, guard, logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, logger)

	auditService := audit.NewService(audit.NewRepository(dbpool))

	systemService := system.NewService(system.NewRepository(dbpool))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Settings:       settingsService,
		Pool:           dbpool,
		RBACMiddleware: rbacMiddleware,
		AuditService:   auditService,

		AuthHandler:        auth.NewHandler(logger, authService, sessionManager, csrfManager, auditLogger),
		UsersHandler:       users.NewHandler(logger, usersService, auditLogger, rbacMiddleware),
		RolesHandler:       roles.NewHandler(logger, rolesService, auditLogger, rbacMiddleware),
		PermissionsHandler: rbac.NewHandler(logger, registry, rbacMiddleware),
		SettingsHandler:    settings.NewHandler(logger, settingsService, auditLogger, rbacMiddleware),
		MenuHandler:        menu.NewHandler(logger, menuService, rbacMiddleware),
		AuditHandler:       audit.NewHandler(logger, auditService, rbacMiddleware),
		SystemHandler:      system.NewHandler(logger, systemService),

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
