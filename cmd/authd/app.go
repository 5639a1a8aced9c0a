package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "github.com/goliatone/go-otp-auth"
	"github.com/goliatone/go-otp-auth/config"
)

// newLogger picks JSON output in production and text otherwise
func newLogger(env, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if env == config.EnvProduction || env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newMailer(cfg *config.Config, logger auth.Logger) auth.Mailer {
	if cfg.UsesSMTP() {
		return auth.NewSMTPMailer(cfg.SMTP)
	}
	logger.Warn("SMTP_HOST not set, verification codes will be logged")
	return auth.LogMailer{Logger: logger}
}

// buildServer assembles the fiber app: request ids, panic recovery,
// access logs, metrics, health check and the /api routes.
func buildServer(cfg *config.Config, repo auth.RepositoryManager, mailer auth.Mailer, logger auth.Logger, reg *prometheus.Registry) (*fiber.App, error) {
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	metrics, err := auth.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	svc, err := auth.NewService(cfg, repo, mailer,
		auth.WithServiceLogger(logger),
		auth.WithServiceActivitySink(metrics),
		auth.WithServiceDebug(!cfg.IsProduction()),
	)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          auth.NewErrorHandler(logger),
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(auth.RequestLogger(logger))
	app.Use(metrics.Middleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			logger.Error("health check failed: %v", err)
			return auth.SendEnvelope(c, fiber.StatusServiceUnavailable, "Database unavailable.")
		}
		return auth.SendEnvelope(c, fiber.StatusOK, "ok")
	})

	svc.Mount(app.Group("/api"), auth.NewRegisterLimiter(cfg.RegisterRateMax, cfg.RegisterRateWindow))

	app.Use(func(c *fiber.Ctx) error {
		return auth.SendEnvelope(c, fiber.StatusNotFound, "Route not found.")
	})

	return app, nil
}
