// Package server provides the relay gateway: the HTTP server that accepts
// viewer connections, runs tracking sessions, and fans lap signals out over
// WebSocket and SSE.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/cmd/application"
	"github.com/agentstation/laprelay/internal/feed"
	"github.com/agentstation/laprelay/internal/server/cache"
	"github.com/agentstation/laprelay/internal/server/events"
	"github.com/agentstation/laprelay/internal/server/events/adapters"
	"github.com/agentstation/laprelay/internal/server/metrics"
	"github.com/agentstation/laprelay/internal/server/middleware"
	"github.com/agentstation/laprelay/internal/server/sse"
	ws "github.com/agentstation/laprelay/internal/server/websocket"
	"github.com/agentstation/laprelay/internal/tracking"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	metrics        *metrics.Metrics
	manager        *tracking.Manager
	rateLimiter    *middleware.RateLimiter
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	defaults := DefaultConfig()
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.FeedMinBackoff == 0 {
		cfg.FeedMinBackoff = defaults.FeedMinBackoff
	}
	if cfg.FeedMaxBackoff == 0 {
		cfg.FeedMaxBackoff = defaults.FeedMaxBackoff
	}
	if cfg.FeedSetupTimeout == 0 {
		cfg.FeedSetupTimeout = defaults.FeedSetupTimeout
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = defaults.PathPrefix
	}

	m := metrics.New()
	snapshots := cache.New(cfg.CacheTTL, cfg.CacheTTL*2)

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	broker.Subscribe(adapters.NewCacheSubscriber(snapshots))
	broker.Subscribe(adapters.NewMetricsSubscriber(m))
	logger.Debug().Int("subscribers", broker.SubscriberCount()).Msg("Event broker wired")

	feedClient := feed.NewClient(
		feed.WithLogger(logger),
		feed.WithObserver(m),
		feed.WithBackoff(cfg.FeedMinBackoff, cfg.FeedMaxBackoff),
		feed.WithSetupTimeout(cfg.FeedSetupTimeout),
	)
	manager := tracking.NewManager(
		app.FeedURL(),
		tracking.FeedSource(feedClient),
		&relayPublisher{hub: wsHub, broker: broker},
		logger,
		tracking.WithObserver(m),
	)
	wsHub.SetCommandHandler(&trackingCommands{manager: manager, logger: logger})

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		cache:          snapshots,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		metrics:        m,
		manager:        manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	logger.Debug().Str("feed_url", app.FeedURL()).Msg("Server instance created")
	return s, nil
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
func (s *Server) Start() {
	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go s.sseBroadcaster.Run(s.ctx)
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops every tracking session, then the background services.
// Sessions go first so their feed connections are released while the
// transports can still deliver.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Int("sessions", s.manager.Len()).Msg("Shutting down relay")

	done := make(chan struct{})
	go func() {
		s.manager.Close()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("Session teardown timed out")
		err = ctx.Err()
	}

	s.cancel()
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	return err
}

// Manager returns the tracking session manager.
func (s *Server) Manager() *tracking.Manager {
	return s.manager
}

// Cache returns the lap snapshot cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
