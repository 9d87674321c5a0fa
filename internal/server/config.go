package server

import "time"

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Performance settings
	RateLimit int           // Requests per minute per IP (0 to disable)
	CacheTTL  time.Duration // How long a driver's last lap stays readable

	// HTTP timeouts. WriteTimeout stays zero by default so WebSocket and
	// SSE streams are not cut off.
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Feed reconnect delay bounds
	FeedMinBackoff time.Duration
	FeedMaxBackoff time.Duration

	// How long a feed connect may wait for the provider to answer
	FeedSetupTimeout time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              3000,
		PathPrefix:        "/api/v1",
		CORSEnabled:       true,
		CORSOrigins:       []string{},
		RateLimit:         600,
		CacheTTL:          10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		FeedMinBackoff:    1 * time.Second,
		FeedMaxBackoff:    30 * time.Second,
		FeedSetupTimeout:  15 * time.Second,
		MetricsEnabled:    true,
	}
}
