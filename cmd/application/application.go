// Package application defines what laprelay commands need from the running
// application.
//
// Commands accept the Application interface rather than the concrete App, so
// they can be tested with application.Mock:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            ep, err := feed.ParseEndpoint(app.FeedURL())
//	            if err != nil {
//	                return err
//	            }
//	            // ... use ep
//	            return nil
//	        },
//	    }
//	}
package application

import "github.com/rs/zerolog"

// Application provides the application interface that commands need.
// The App struct from cmd/laprelay/app implements it.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// FeedURL returns the configured provider live page URL.
	FeedURL() string

	// HTTPHost returns the address the relay server binds to.
	HTTPHost() string

	// HTTPPort returns the port the relay server listens on.
	HTTPPort() int

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (yaml or json).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
