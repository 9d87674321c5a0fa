// Package serve implements the serve command, which runs the relay server.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/laprelay/cmd/application"
	"github.com/agentstation/laprelay/internal/feed"
	"github.com/agentstation/laprelay/internal/server"
)

// shutdownTimeout bounds session teardown and connection draining.
const shutdownTimeout = 30 * time.Second

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lap timing relay",
		Long: `Start the relay server.

Endpoints:
  GET /api/v1/ws                      WebSocket for startTracking/stopTracking
  GET /api/v1/drivers/{name}/stream   SSE stream of one driver's signals
  GET /api/v1/drivers/{name}/lap      latest published lap for a driver
  GET /api/v1/sessions                active tracking sessions
  GET /api/v1/health, /api/v1/ready   liveness and readiness
  GET /metrics                        Prometheus metrics

Host and port default to HTTP_HOST and HTTP_PORT (0.0.0.0:3000).`,
		Example: `  # Follow the configured track on port 3000
  laprelay serve

  # Another track and port
  laprelay serve --feed-url https://host/pl/api/live_www__tid_61_h_abc --port 8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().IntP("port", "p", 0, "server port (default HTTP_PORT or 3000)")
	cmd.Flags().String("host", "", "bind address (default HTTP_HOST or 0.0.0.0)")
	cmd.Flags().StringSlice("cors-origins", []string{}, "allowed CORS origins (default all)")
	cmd.Flags().Bool("no-cors", false, "disable CORS headers")
	cmd.Flags().Int("rate-limit", defaults.RateLimit, "requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "how long a driver's last lap stays readable")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Duration("feed-min-backoff", defaults.FeedMinBackoff, "first feed reconnect delay")
	cmd.Flags().Duration("feed-max-backoff", defaults.FeedMaxBackoff, "longest feed reconnect delay")
	cmd.Flags().Duration("feed-setup-timeout", defaults.FeedSetupTimeout, "how long the feed may take to accept a subscription")
	cmd.Flags().Bool("metrics", true, "enable the /metrics endpoint")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	return cmd
}

// run builds the relay and serves until the command context is canceled.
func run(cmd *cobra.Command, app application.Application) error {
	cfg, err := configFromFlags(cmd, app)
	if err != nil {
		return err
	}
	logger := app.Logger()

	if _, err := feed.ParseEndpoint(app.FeedURL()); err != nil {
		// Sessions report this to each viewer; the server still starts.
		logger.Warn().Err(err).Str("feed_url", app.FeedURL()).Msg("Feed URL is not usable")
	}

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating relay server: %w", err)
	}
	srv.Start()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	logger.Info().
		Str("addr", httpServer.Addr).
		Str("feed_url", app.FeedURL()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Starting relay server")

	return startWithGracefulShutdown(cmd.Context(), httpServer, srv, logger)
}

// configFromFlags builds the server config from app settings and flags.
func configFromFlags(cmd *cobra.Command, app application.Application) (server.Config, error) {
	cfg := server.DefaultConfig()

	cfg.Host = app.HTTPHost()
	cfg.Port = app.HTTPPort()
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if err := validatePort(cfg.Port); err != nil {
		return cfg, err
	}

	origins, err := cmd.Flags().GetStringSlice("cors-origins")
	if err != nil {
		panic("programming error: failed to get flag cors-origins: " + err.Error())
	}
	cfg.CORSOrigins = origins
	cfg.CORSEnabled = !mustGetBool(cmd, "no-cors")
	cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	cfg.CacheTTL = mustGetDuration(cmd, "cache-ttl")
	cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	cfg.FeedMinBackoff = mustGetDuration(cmd, "feed-min-backoff")
	cfg.FeedMaxBackoff = mustGetDuration(cmd, "feed-max-backoff")
	cfg.FeedSetupTimeout = mustGetDuration(cmd, "feed-setup-timeout")
	cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	cfg.PathPrefix = mustGetString(cmd, "prefix")

	if cfg.FeedMinBackoff <= 0 || cfg.FeedMaxBackoff < cfg.FeedMinBackoff {
		return cfg, fmt.Errorf("invalid feed backoff: min %s, max %s", cfg.FeedMinBackoff, cfg.FeedMaxBackoff)
	}
	if cfg.FeedSetupTimeout <= 0 {
		return cfg, fmt.Errorf("invalid feed setup timeout: %s", cfg.FeedSetupTimeout)
	}
	return cfg, nil
}

// validatePort checks that port is a usable TCP port.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port out of range: %d", port)
	}
	return nil
}

// startWithGracefulShutdown serves until ctx is canceled. Relay services
// stop before the HTTP server drains, as open SSE streams only end when
// the broadcaster shuts down.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")

		// The parent context is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Relay services shutdown had issues")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
