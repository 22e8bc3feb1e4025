package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/config"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/defaults"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/docprompts"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/resource"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/workspace"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/clock"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/middleware"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/promptfile"
)

const version = "0.1.0"

// app holds the process-wide state shared by the HTTP handlers.
type app struct {
	resources  *resource.Registry
	prompts    *docprompts.Store
	resolver   *defaults.Resolver
	workspaces *workspace.Registry
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func newApp(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*app, error) {
	sections, err := hierarchy.Default()
	if err != nil {
		return nil, err
	}
	resources, err := resource.Default()
	if err != nil {
		return nil, err
	}

	prompts := docprompts.NewStore()
	if cfg.PromptsFile != "" {
		if err := promptfile.Load(cfg.PromptsFile, prompts); err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.PromptsFile).Int("entries", prompts.Len()).Msg("loaded document prompts")
	}

	return &app{
		resources:  resources,
		prompts:    prompts,
		resolver:   defaults.NewResolver(resources, prompts, clk),
		workspaces: workspace.NewRegistry(sections, resources, clk, logger),
	}, nil
}

func newServer(cfg *config.Config, a *app, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.BodyLimit(cfg.BodyLimit))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"version": version,
			"prompts": a.prompts.Len(),
			"doctors": len(a.workspaces.Doctors()),
		})
	})

	resource.NewHandler(a.resources).RegisterRoutes(apiV1)
	docprompts.NewHandler(a.prompts).RegisterRoutes(apiV1)
	defaults.NewHandler(a.resolver).RegisterRoutes(apiV1)
	workspace.NewHandler(a.workspaces).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	a, err := newApp(cfg, clock.New(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	e := newServer(cfg, a, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PromptsWatch {
		w := promptfile.NewWatcher(cfg.PromptsFile, a.prompts, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("prompt file watcher stopped")
			}
		}()
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
