// Package feed implements the feed command, which shows where the relay
// reads live timing from.
package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/agentstation/laprelay/cmd/application"
	"github.com/agentstation/laprelay/internal/feed"
)

// Info is the feed command's output.
type Info struct {
	feed.Endpoint `yaml:",inline"`
	StreamURL     string `json:"stream_url" yaml:"stream_url"`
}

// NewCommand creates the feed command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Show the configured timing feed",
		Long: `Parse the configured live page URL and print the track id, host, and
the event stream address sessions subscribe to.`,
		Example: `  laprelay feed
  laprelay feed -o json
  FEED_URL=https://host/pl/api/live_www__tid_61_h_abc laprelay feed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ep, err := feed.ParseEndpoint(app.FeedURL())
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), app.OutputFormat(), Info{Endpoint: ep, StreamURL: ep.StreamURL()})
		},
	}
}

// write renders info in the requested format.
func write(w io.Writer, format string, info Info) error {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		data, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	default:
		return fmt.Errorf("unsupported format %q (use yaml or json)", format)
	}
}
