package feed

import (
	"net/url"
	"regexp"

	"github.com/agentstation/laprelay/pkg/errors"
)

// InvalidEndpointMessage is reported to clients when the configured feed URL
// cannot be turned into a stream address.
const InvalidEndpointMessage = "invalid feed URL in configuration"

// streamPath is the provider's SSE endpoint, relative to the feed host.
const streamPath = "/bramka/live_new.php"

var tidPattern = regexp.MustCompile(`tid_(\d+)_`)

// Endpoint identifies one provider track feed.
type Endpoint struct {
	// TID is the provider's track/session id.
	TID string `json:"tid" yaml:"tid"`
	// Host is the scheme and authority of the feed URL.
	Host string `json:"host" yaml:"host"`
	// URL is the configured live page URL the endpoint was parsed from.
	URL string `json:"url" yaml:"url"`
}

// ParseEndpoint extracts the track id and host from a live page URL such as
// https://example.com/pl/api/live_www__tid_60_h_abc.
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, errors.NewConfigError("feed", InvalidEndpointMessage, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Endpoint{}, errors.NewConfigError("feed", InvalidEndpointMessage,
			errors.New("feed URL must be absolute"))
	}
	m := tidPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Endpoint{}, errors.NewConfigError("feed", InvalidEndpointMessage,
			errors.New("feed URL path has no tid_<digits>_ segment"))
	}
	return Endpoint{
		TID:  m[1],
		Host: u.Scheme + "://" + u.Host,
		URL:  raw,
	}, nil
}

// StreamURL returns the SSE address for the endpoint.
func (e Endpoint) StreamURL() string {
	return e.Host + streamPath + "?tid=" + url.QueryEscape(e.TID)
}
