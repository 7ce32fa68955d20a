package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	dashboardhandler "github.com/jwalitptl/admin-dashboard/internal/handler/dashboard"
	"github.com/jwalitptl/admin-dashboard/internal/handler/health"
	httpmetrics "github.com/jwalitptl/admin-dashboard/internal/handler/prometheus"
	"github.com/jwalitptl/admin-dashboard/internal/middleware"
	"github.com/jwalitptl/admin-dashboard/internal/router"
	"github.com/jwalitptl/admin-dashboard/internal/worker"
	"github.com/jwalitptl/admin-dashboard/pkg/auth"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServer(cmd.Context())
		},
	}
}

func (c *cli) runServer(ctx context.Context) error {
	cfg := c.cfg
	log := c.logger

	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// The server still starts when the backend is down; readiness reports it.
	if err := a.dash.RefreshAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial dashboard refresh failed")
	}

	var authMW *middleware.AuthMiddleware
	if cfg.Auth.Enabled() {
		authMW = middleware.NewAuthMiddleware(auth.NewJWTService(cfg.Auth.Secret, cfg.Auth.Issuer))
	}

	routerCfg := router.RouterConfig{
		Mode:       cfg.Server.Mode,
		CORSConfig: corsConfig(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders),
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		}
	}

	r := router.NewRouter(
		log,
		httpmetrics.New(a.registry, metricsNamespace),
		authMW,
		health.NewHandler(a.registry, a.readinessChecks()),
		dashboardhandler.NewHandler(a.dash, a.actions),
		routerCfg,
	)
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var refresher *worker.RefreshWorker
	if cfg.Refresh.Schedule != "" {
		refresher, err = worker.NewRefreshWorker(a.dash, cfg.Refresh.Schedule, log)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if refresher != nil {
		g.Go(func() error {
			refresher.Start(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited properly")
	return nil
}

func corsConfig(origins, methods, headers []string) middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		cc.AllowOrigins = origins
	}
	if len(methods) > 0 {
		cc.AllowMethods = methods
	}
	if len(headers) > 0 {
		cc.AllowHeaders = headers
	}
	return cc
}
