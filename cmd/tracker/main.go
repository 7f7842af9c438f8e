package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nbthub-com/project-manager/internal/app"
	"github.com/nbthub-com/project-manager/internal/auth"
	"github.com/nbthub-com/project-manager/internal/dashboard"
	"github.com/nbthub-com/project-manager/internal/mailbox"
	"github.com/nbthub-com/project-manager/internal/members"
	"github.com/nbthub-com/project-manager/internal/notes"
	"github.com/nbthub-com/project-manager/internal/observability"
	"github.com/nbthub-com/project-manager/internal/platform/cache"
	"github.com/nbthub-com/project-manager/internal/platform/db"
	"github.com/nbthub-com/project-manager/internal/projects"
	"github.com/nbthub-com/project-manager/internal/shared"
	"github.com/nbthub-com/project-manager/internal/tasks"
	"github.com/nbthub-com/project-manager/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "tracker_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(pool))
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	membersHandler := members.NewHandler(logger, members.NewService(logger, members.NewRepository(pool), dashboardService), authMiddleware)
	projectsHandler := projects.NewHandler(logger, projects.NewService(logger, projects.NewRepository(pool), dashboardService))
	tasksHandler := tasks.NewHandler(logger, tasks.NewService(logger, tasks.NewRepository(pool), dashboardService))
	notesHandler := notes.NewHandler(logger, notes.NewService(notes.NewRepository(pool)))
	mailboxHandler := mailbox.NewHandler(logger, mailbox.NewService(logger, mailbox.NewRepository(pool), jobClient))

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		MembersHandler:   membersHandler,
		ProjectsHandler:  projectsHandler,
		TasksHandler:     tasksHandler,
		NotesHandler:     notesHandler,
		MailboxHandler:   mailboxHandler,
		DashboardHandler: dashboardHandler,
		Metrics:          metrics,
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
