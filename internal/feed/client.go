// Package feed subscribes to the timing provider's server-sent event stream
// and delivers decoded events to a handler, one at a time.
package feed

import (
	"context"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/pkg/errors"
	"github.com/agentstation/laprelay/pkg/logging"
	"github.com/agentstation/laprelay/pkg/timing"
)

const (
	defaultMinBackoff = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second

	// defaultSetupTimeout bounds the wait for a stream acknowledgement.
	defaultSetupTimeout = 15 * time.Second
)

// Handler is invoked for every decoded feed event, sequentially, on the
// subscription's delivery goroutine.
type Handler func(evt *timing.RawEvent)

// Observer receives feed-level counters.
type Observer interface {
	EventReceived()
	ParseFailed()
	Reconnected()
}

type nopObserver struct{}

func (nopObserver) EventReceived() {}
func (nopObserver) ParseFailed()   {}
func (nopObserver) Reconnected()   {}

// Client opens feed subscriptions. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	logger     *zerolog.Logger
	observer   Observer
	minBackoff time.Duration
	maxBackoff time.Duration

	setupTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. It must not set a response timeout,
// as streams are long-lived.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver sets the counter sink.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithBackoff sets the reconnect delay bounds.
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.minBackoff = minDelay
		c.maxBackoff = maxDelay
	}
}

// WithSetupTimeout bounds how long a connect may wait for the provider's
// 200 event-stream response. Zero or less waits indefinitely.
func WithSetupTimeout(d time.Duration) Option {
	return func(c *Client) { c.setupTimeout = d }
}

// NewClient creates a feed client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{},
		logger:     logging.Component("feed"),
		observer:   nopObserver{},
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,

		setupTimeout: defaultSetupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe opens the stream at streamURL and starts delivering events to h.
// It returns once the provider has acknowledged the subscription with a 200
// event-stream response. Canceling ctx aborts the setup only; the
// subscription then lives until Close.
func (c *Client) Subscribe(ctx context.Context, streamURL string, h Handler) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)

	resp, err := c.open(subCtx, streamURL, "")
	stop()
	if err == nil && ctx.Err() != nil {
		_ = resp.Body.Close()
		err = errors.NewSetupError("feed", ctx.Err())
	}
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{
		client:  c,
		url:     streamURL,
		handler: h,
		ctx:     subCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  c.logger.With().Str("url", streamURL).Logger(),
	}
	go sub.run(resp)
	return sub, nil
}

// open connects to the stream and waits for the acknowledgement, which
// must arrive within the setup timeout. The response body stays readable
// until ctx ends or the body is closed.
func (c *Client) open(ctx context.Context, streamURL, lastEventID string) (*http.Response, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if c.setupTimeout > 0 {
		timer = time.AfterFunc(c.setupTimeout, cancel)
	}

	resp, err := c.request(reqCtx, streamURL, lastEventID)
	if timer != nil && !timer.Stop() && ctx.Err() == nil {
		if err == nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, &errors.SetupError{
			Resource: "feed",
			Message:  fmt.Sprintf("no acknowledgement within %s", c.setupTimeout),
			Err:      context.DeadlineExceeded,
		}
	}
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// request performs one stream request and validates the acknowledgement.
func (c *Client) request(ctx context.Context, streamURL, lastEventID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, errors.NewSetupError("feed", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewSetupError("feed", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &errors.SetupError{Resource: "feed", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		_ = resp.Body.Close()
		return nil, &errors.SetupError{
			Resource: "feed",
			Message:  fmt.Sprintf("unexpected content type %q", resp.Header.Get("Content-Type")),
		}
	}
	return resp, nil
}

// backoff returns the delay before reconnect attempt n (1-based).
func (c *Client) backoff(attempt int, retry time.Duration) time.Duration {
	d := time.Duration(float64(c.minBackoff) * math.Pow(2, float64(min(attempt-1, 5))))
	if d > c.maxBackoff {
		d = c.maxBackoff
	}
	if retry > d {
		d = retry
	}
	return d
}

// cancelOnClose releases the per-connection context with the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
