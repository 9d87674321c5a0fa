package tracking

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/pkg/errors"
	"github.com/agentstation/laprelay/pkg/timing"
)

// Session tracks one driver for one client.
type Session struct {
	source    Source
	publisher Publisher
	resolver  *timing.FieldResolver
	logger    zerolog.Logger
	streamURL string
	startedAt time.Time

	mu          sync.Mutex
	state       State
	sub         io.Closer
	cancelSetup context.CancelFunc
	starting    chan struct{}
	phase       atomic.Int32
	closing     atomic.Bool
	stopped     chan struct{}
}

// SessionConfig holds what a Session needs to run.
type SessionConfig struct {
	ClientID   string
	DriverName string
	StreamURL  string
	Source     Source
	Publisher  Publisher
	Resolver   *timing.FieldResolver
	Logger     *zerolog.Logger
}

// NewSession creates a session in the Starting phase.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Resolver == nil {
		cfg.Resolver = timing.NewFieldResolver()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Session{
		source:    cfg.Source,
		publisher: cfg.Publisher,
		resolver:  cfg.Resolver,
		streamURL: cfg.StreamURL,
		startedAt: time.Now(),
		logger: logger.With().
			Str("client_id", cfg.ClientID).
			Str("driver", cfg.DriverName).
			Logger(),
		state: State{
			ClientID:   cfg.ClientID,
			DriverName: cfg.DriverName,
		},
		stopped: make(chan struct{}),
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() SessionState {
	return SessionState(s.phase.Load())
}

// ClientID returns the owning client.
func (s *Session) ClientID() string {
	return s.state.ClientID
}

// DriverName returns the tracked driver.
func (s *Session) DriverName() string {
	return s.state.DriverName
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := SessionInfo{
		ClientID:    s.state.ClientID,
		Driver:      s.state.DriverName,
		State:       s.Phase().String(),
		DriverFound: s.state.DriverEverFound,
		StartedAt:   s.startedAt,
	}
	if s.state.LastPublishedLap != nil {
		lap := *s.state.LastPublishedLap
		info.LastLap = &lap
	}
	return info
}

// Start subscribes to the feed. On failure the session is Closed, the
// client receives an error signal, and a SetupError is returned. A session
// stopped during setup, or whose ctx ends first, returns ErrCanceled
// without signalling the client.
func (s *Session) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		return errors.ErrCanceled
	}
	s.cancelSetup = cancel
	s.starting = make(chan struct{})
	s.mu.Unlock()
	defer close(s.starting)

	sub, err := s.source.Subscribe(ctx, s.streamURL, s.handle)
	if err != nil {
		if !s.closing.CompareAndSwap(false, true) {
			return errors.ErrCanceled
		}
		s.phase.Store(int32(StateClosed))
		close(s.stopped)
		if ctx.Err() != nil {
			s.logger.Debug().Err(err).Msg("Feed subscription abandoned")
			return errors.ErrCanceled
		}
		s.logger.Error().Err(err).Str("url", s.streamURL).Msg("Feed subscription failed")
		s.publisher.EmitToClient(s.state.ClientID, EventError, MsgInternalError)
		if errors.IsSetupError(err) {
			return err
		}
		return errors.WrapSetup("feed", err)
	}

	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		if cerr := sub.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("Releasing feed subscription failed")
		}
		return errors.ErrCanceled
	}
	s.sub = sub
	s.phase.Store(int32(StateActive))
	s.mu.Unlock()

	s.logger.Info().Str("url", s.streamURL).Msg("Tracking started")
	return nil
}

// Stop releases the feed subscription and waits until no handler runs.
// A setup in progress is canceled and awaited. Stop is idempotent and must
// not be called from the event handler.
func (s *Session) Stop() error {
	if !s.closing.CompareAndSwap(false, true) {
		<-s.stopped
		return nil
	}
	defer close(s.stopped)

	s.mu.Lock()
	s.phase.Store(int32(StateClosing))
	cancelSetup, starting := s.cancelSetup, s.starting
	s.mu.Unlock()

	if cancelSetup != nil {
		cancelSetup()
	}
	if starting != nil {
		<-starting
	}

	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	var err error
	if sub != nil {
		if err = errors.WrapTeardown("subscription", s.state.ClientID, sub.Close()); err != nil {
			s.logger.Warn().Err(err).Msg("Releasing feed subscription failed")
		}
	}
	s.phase.Store(int32(StateClosed))
	s.logger.Info().Msg("Tracking stopped")
	return err
}

// handle processes one feed event. Calls are sequential per session.
func (s *Session) handle(evt *timing.RawEvent) {
	if s.closing.Load() {
		return
	}

	s.mu.Lock()
	driver := s.state.DriverName
	id, found := timing.ResolveDriver(evt, driver)
	if !found {
		signal := !s.state.DriverEverFound && !s.state.NotFoundSignaled
		if signal {
			s.state.NotFoundSignaled = true
		}
		s.mu.Unlock()
		if signal {
			s.logger.Info().Msg("Driver not found in feed")
			s.publisher.EmitToGroup(driver, EventDriverNotFound, nil)
		}
		return
	}

	if !s.state.DriverEverFound {
		s.state.DriverEverFound = true
		s.logger.Debug().Str("driver_id", string(id)).Msg("Driver found in feed")
	}
	fields := s.resolver.Resolve(evt, id)
	if !timing.ShouldPublish(s.state.LastPublishedLap, fields) {
		s.mu.Unlock()
		return
	}
	s.state.LastPublishedLap = fields.CurrentLap
	s.mu.Unlock()

	s.logger.Debug().Int("lap", *fields.CurrentLap).Msg("Publishing lap")
	s.publisher.EmitToGroup(driver, EventLapData, timing.NewLapRecord(driver, fields))
}
