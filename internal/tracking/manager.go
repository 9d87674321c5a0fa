package tracking

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/laprelay/internal/feed"
	"github.com/agentstation/laprelay/pkg/errors"
	"github.com/agentstation/laprelay/pkg/logging"
	"github.com/agentstation/laprelay/pkg/timing"
)

// Manager owns the sessions of all connected clients, at most one each.
type Manager struct {
	feedURL   string
	source    Source
	publisher Publisher
	resolver  *timing.FieldResolver
	observer  Observer
	logger    *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithObserver sets the lifecycle counter sink.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

// NewManager creates a manager for the feed at feedURL. The URL is
// validated on every Start so a bad configuration fails requests, not the
// process.
func NewManager(feedURL string, source Source, publisher Publisher, logger *zerolog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.Component("tracking")
	}
	m := &Manager{
		feedURL:   feedURL,
		source:    source,
		publisher: publisher,
		resolver:  timing.NewFieldResolver(),
		observer:  nopObserver{},
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins tracking driverName for clientID, replacing any session the
// client already has. The previous session is fully stopped before the new
// one subscribes. Validation and setup failures are also signalled to the
// client.
func (m *Manager) Start(ctx context.Context, clientID, driverName string) error {
	if strings.TrimSpace(driverName) == "" {
		m.publisher.EmitToClient(clientID, EventError, MsgDriverRequired)
		return errors.NewValidationError("driver_name", driverName, MsgDriverRequired)
	}

	endpoint, err := feed.ParseEndpoint(m.feedURL)
	if err != nil {
		m.logger.Error().Err(err).Str("client_id", clientID).Msg("Feed endpoint rejected")
		m.publisher.EmitToClient(clientID, EventError, feed.InvalidEndpointMessage)
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.ErrCanceled
	}
	previous := m.sessions[clientID]
	delete(m.sessions, clientID)
	m.mu.Unlock()

	if previous != nil {
		if err := previous.Stop(); err != nil {
			m.logger.Warn().Err(err).Str("client_id", clientID).Msg("Previous session teardown failed")
		}
		if previous.DriverName() != driverName {
			m.publisher.Leave(clientID, previous.DriverName())
		}
	}

	m.publisher.Join(clientID, driverName)

	session := NewSession(SessionConfig{
		ClientID:   clientID,
		DriverName: driverName,
		StreamURL:  endpoint.StreamURL(),
		Source:     m.source,
		Publisher:  m.publisher,
		Resolver:   m.resolver,
		Logger:     m.logger,
	})

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.publisher.Leave(clientID, driverName)
		return errors.ErrCanceled
	}
	if raced := m.sessions[clientID]; raced != nil {
		defer func() { _ = raced.Stop() }()
	}
	m.sessions[clientID] = session
	m.mu.Unlock()

	if err := session.Start(ctx); err != nil {
		m.mu.Lock()
		owned := m.sessions[clientID] == session
		if owned {
			delete(m.sessions, clientID)
		}
		m.mu.Unlock()
		// A slot taken by Stop, Close or a replacing Start is theirs to clean up.
		if owned {
			m.publisher.Leave(clientID, driverName)
		}
		if !errors.IsCanceled(err) {
			m.observer.SetupFailed()
		}
		return err
	}

	m.observer.SessionStarted()
	return nil
}

// Stop ends the client's session, if any. It is idempotent.
func (m *Manager) Stop(clientID string) {
	m.mu.Lock()
	session := m.sessions[clientID]
	delete(m.sessions, clientID)
	m.mu.Unlock()

	if session == nil {
		return
	}
	if err := session.Stop(); err != nil {
		m.logger.Warn().Err(err).Str("client_id", clientID).Msg("Session teardown failed")
	}
	m.publisher.Leave(clientID, session.DriverName())
}

// Session returns the client's current session.
func (m *Manager) Session(clientID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[clientID]
	return s, ok
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Active returns a snapshot of all sessions ordered by client id.
func (m *Manager) Active() []SessionInfo {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ClientID < infos[j].ClientID })
	return infos
}

// FeedURL returns the configured feed endpoint.
func (m *Manager) FeedURL() string {
	return m.feedURL
}

// Close stops every session and rejects further starts.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for clientID, s := range sessions {
		wg.Add(1)
		go func(clientID string, s *Session) {
			defer wg.Done()
			if err := s.Stop(); err != nil {
				m.logger.Warn().Err(err).Str("client_id", clientID).Msg("Session teardown failed")
			}
		}(clientID, s)
	}
	wg.Wait()
	m.logger.Info().Int("sessions", len(sessions)).Msg("Session manager closed")
}
