package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskhive/taskhive/internal/app"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/groups"
	"github.com/taskhive/taskhive/internal/observability"
	"github.com/taskhive/taskhive/internal/platform/cache"
	"github.com/taskhive/taskhive/internal/platform/db"
	"github.com/taskhive/taskhive/internal/tasks"
	"github.com/taskhive/taskhive/internal/users"
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

	logger := app.NewLogger(cfg.LogFormat)

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

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, cfg.TokenSecret, cfg.TokenTTL)
	throttle := auth.NewThrottle(redisClient, cfg.LoginMaxAttempts, cfg.LoginWindow)
	gate := auth.NewGate(authRepo, logger)
	authHandler := auth.NewHandler(logger, authService, throttle)

	tasksHandler := tasks.NewHandler(logger, tasks.NewService(tasks.NewRepository(pool)))
	groupsHandler := groups.NewHandler(logger, groups.NewService(groups.NewRepository(pool)), gate)
	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(pool)), gate)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Gate:          gate,
		AuthHandler:   authHandler,
		TasksHandler:  tasksHandler,
		GroupsHandler: groupsHandler,
		UsersHandler:  usersHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
