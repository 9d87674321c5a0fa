// Package application provides a test double for the application interface.
package application

import "github.com/rs/zerolog"

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
//
//	mock := &application.Mock{
//	    FeedURLFunc: func() string { return srv.URL + "/pl/api/live_www__tid_60_h_abc" },
//	}
//	cmd := feed.NewCommand(mock)
type Mock struct {
	FeedURLFunc      func() string
	HTTPHostFunc     func() string
	HTTPPortFunc     func() int
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// FeedURL returns the feed URL using the mock function or "".
func (m *Mock) FeedURL() string {
	if m.FeedURLFunc != nil {
		return m.FeedURLFunc()
	}
	return ""
}

// HTTPHost returns the bind address using the mock function or "127.0.0.1".
func (m *Mock) HTTPHost() string {
	if m.HTTPHostFunc != nil {
		return m.HTTPHostFunc()
	}
	return "127.0.0.1"
}

// HTTPPort returns the port using the mock function or 0.
func (m *Mock) HTTPPort() int {
	if m.HTTPPortFunc != nil {
		return m.HTTPPortFunc()
	}
	return 0
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "yaml".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "yaml"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builder using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}
