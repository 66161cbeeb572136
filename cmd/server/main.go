package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hallpass/hallpass/config"
	"github.com/hallpass/hallpass/internal/email"
	"github.com/hallpass/hallpass/internal/health"
	"github.com/hallpass/hallpass/internal/infrastructure/postgres"
	ctxlog "github.com/hallpass/hallpass/internal/log"
	"github.com/hallpass/hallpass/internal/metrics"
	"github.com/hallpass/hallpass/internal/reaper"
	"github.com/hallpass/hallpass/internal/session"
	httptransport "github.com/hallpass/hallpass/internal/transport/http"
	"github.com/hallpass/hallpass/internal/transport/http/handler"
	"github.com/hallpass/hallpass/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	notifier := email.NewNotifier(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	sessions := session.NewIssuer([]byte(cfg.JWTSecret))
	magicLinks := usecase.NewMagicLinkService(userRepo, notifier, sessions, cfg.BaseURL)
	authHandler := handler.NewAuthHandler(magicLinks, logger, sessions.TTL(), cfg.Env != "local")

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	tokenReaper := reaper.New(userRepo, logger, cfg.ReaperSchedule)
	if err := tokenReaper.Start(); err != nil {
		stop()
		log.Fatalf("reaper: %v", err)
	}

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, sessions),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	select {
	case <-tokenReaper.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("reaper did not stop before shutdown deadline")
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
