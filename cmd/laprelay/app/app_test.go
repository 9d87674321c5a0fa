package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
)

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2026-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2026-01-01" {
		t.Errorf("Date() = %s, want 2026-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
	if app.FeedURL() == "" {
		t.Error("FeedURL() should default to the built-in track")
	}
}

func TestApp_Options(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &Config{FeedURL: "https://x.example/pl/api/live_www__tid_1_h_a", HTTPHost: "127.0.0.1", HTTPPort: 9000, Format: "json"}

	app, err := New("dev", "", "", "", WithConfig(cfg), WithLogger(&logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if app.Logger() != &logger {
		t.Error("WithLogger not applied")
	}
	if app.FeedURL() != cfg.FeedURL || app.HTTPHost() != "127.0.0.1" || app.HTTPPort() != 9000 {
		t.Errorf("WithConfig not applied: %+v", app.Config())
	}
	if app.OutputFormat() != "json" {
		t.Errorf("OutputFormat() = %q, want json", app.OutputFormat())
	}

	cfg.Format = ""
	if app.OutputFormat() != "yaml" {
		t.Errorf("OutputFormat() default = %q, want yaml", app.OutputFormat())
	}
}

func TestApp_Shutdown(t *testing.T) {
	app, err := New("dev", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestExecute_Version(t *testing.T) {
	app, err := New("1.2.3", "abc", "today", "ci")
	if err != nil {
		t.Fatal(err)
	}

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--log-level", "error"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := out.String(); got != "laprelay 1.2.3\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestExecute_FeedURLFlag(t *testing.T) {
	app, err := New("dev", "", "", "")
	if err != nil {
		t.Fatal(err)
	}

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"feed", "--feed-url", "https://t.example/pl/api/live_www__tid_77_h_z", "-o", "json", "-q"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"tid": "77"`)) {
		t.Errorf("feed output = %s", out.String())
	}
}
