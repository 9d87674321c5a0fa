package server

import (
	"net/http"

	"github.com/agentstation/laprelay/internal/server/handlers"
	"github.com/agentstation/laprelay/internal/server/metrics"
	"github.com/agentstation/laprelay/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.manager,
		s.cache,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
	)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	mux.HandleFunc("GET "+prefix+"/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/drivers/{name}/stream", h.HandleDriverStream)
	mux.HandleFunc("GET "+prefix+"/drivers/{name}/lap", h.HandleDriverLap)
	mux.HandleFunc("GET "+prefix+"/sessions", h.HandleSessions)

	if s.config.MetricsEnabled {
		mux.Handle("GET /metrics", s.metrics.Handler(func() {
			s.metrics.SetActiveSessions(s.manager.Len())
			s.metrics.SetWebSocketClients(s.wsHub.ClientCount())
			s.metrics.SetSSEClients(s.sseBroadcaster.ClientCount())
		}))
	}
}

// applyMiddleware wraps handler with the middleware chain. The first
// middleware listed is the outermost.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}

	if cfg.MetricsEnabled {
		chain = append(chain, metrics.RequestMiddleware(s.metrics))
	}

	return middleware.Chain(chain...)(handler)
}
