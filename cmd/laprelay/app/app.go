// Package app wires configuration, logging, and commands for the laprelay
// CLI. App implements application.Application for the commands it runs.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/cmd/application"
	"github.com/agentstation/laprelay/pkg/errors"
)

// App represents the laprelay application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load configuration", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// FeedURL returns the configured provider live page URL.
func (a *App) FeedURL() string {
	return a.config.FeedURL
}

// HTTPHost returns the relay server bind address.
func (a *App) HTTPHost() string {
	return a.config.HTTPHost
}

// HTTPPort returns the relay server port.
func (a *App) HTTPPort() int {
	return a.config.HTTPPort
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	if a.config.Format == "" {
		return "yaml"
	}
	return a.config.Format
}

// Shutdown performs graceful shutdown of the application. The serve
// command owns the relay's lifecycle, so there is nothing left to release
// here.
func (a *App) Shutdown(_ context.Context) error {
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
