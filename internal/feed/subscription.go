package feed

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/pkg/errors"
	"github.com/agentstation/laprelay/pkg/timing"
)

// Subscription is a live feed stream. Events are delivered by a single
// goroutine, so the handler never runs concurrently with itself.
type Subscription struct {
	client  *Client
	url     string
	handler Handler
	logger  zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// URL returns the stream address.
func (s *Subscription) URL() string {
	return s.url
}

// Done is closed when the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close stops the stream and waits for the delivery goroutine to exit.
// No handler invocation starts after Close returns. It must not be called
// from inside the handler.
func (s *Subscription) Close() error {
	s.closeOnce.Do(s.cancel)
	<-s.done
	return nil
}

func (s *Subscription) run(resp *http.Response) {
	defer close(s.done)

	var (
		lastEventID string
		retry       time.Duration
		attempt     int
	)
	for {
		connStart := time.Now()
		lastEventID, retry = s.consume(resp.Body, lastEventID, retry)
		_ = resp.Body.Close()
		if s.ctx.Err() != nil {
			return
		}
		if time.Since(connStart) > time.Minute {
			attempt = 0
		}

		for {
			attempt++
			delay := s.client.backoff(attempt, retry)
			s.logger.Warn().Int("attempt", attempt).Dur("retry_in", delay).Msg("Feed stream lost, reconnecting")

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(delay):
			}

			var err error
			resp, err = s.client.open(s.ctx, s.url, lastEventID)
			if s.ctx.Err() != nil {
				if err == nil {
					_ = resp.Body.Close()
				}
				return
			}
			if err == nil {
				s.client.observer.Reconnected()
				s.logger.Info().Int("attempt", attempt).Msg("Feed stream reconnected")
				break
			}
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("Feed reconnect failed")
		}
	}
}

// consume reads one connection until it ends, dispatching events.
func (s *Subscription) consume(body io.Reader, lastEventID string, retry time.Duration) (string, time.Duration) {
	sr := newStreamReader(body)
	sr.lastEventID = lastEventID
	sr.retry = retry

	for {
		msg, err := sr.Next()
		if err != nil {
			if err != io.EOF && s.ctx.Err() == nil {
				s.logger.Warn().Err(errors.WrapIO("read", s.url, err)).Msg("Feed stream read failed")
			}
			return sr.lastEventID, sr.retry
		}
		if s.ctx.Err() != nil {
			return sr.lastEventID, sr.retry
		}
		if msg.Event != "" && msg.Event != "message" {
			continue
		}

		s.client.observer.EventReceived()
		evt, err := timing.ParseRawEvent(msg.Data)
		if err != nil {
			s.client.observer.ParseFailed()
			s.logger.Warn().Err(errors.NewFeedParseError(msg.Data, err)).Msg("Dropping malformed feed event")
			continue
		}
		s.handler(evt)
	}
}
