package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/laprelay/pkg/errors"
	"github.com/agentstation/laprelay/pkg/timing"
)

func newTestSession(src *fakeSource, pub *fakePublisher) *Session {
	return NewSession(SessionConfig{
		ClientID:   "c1",
		DriverName: "Smith",
		StreamURL:  "https://timing.example.com/bramka/live_new.php?tid=60",
		Source:     src,
		Publisher:  pub,
	})
}

func TestSessionPublishesOnLapChange(t *testing.T) {
	src, pub := &fakeSource{}, &fakePublisher{}
	s := newTestSession(src, pub)
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateActive, s.Phase())

	sub := src.last()
	for _, lap := range []string{"", "3", "3", "4", "4", "3"} {
		sub.push(lapEvent("Smith", lap))
	}

	laps := pub.events(EventLapData)
	require.Len(t, laps, 3)
	var got []int
	for _, e := range laps {
		assert.Equal(t, "Smith", e.Target)
		rec := e.Data.(timing.LapRecord)
		assert.Equal(t, "Smith", rec.DriverName)
		got = append(got, *rec.CurrentLap)
	}
	assert.Equal(t, []int{3, 4, 3}, got)

	first := laps[0].Data.(timing.LapRecord)
	require.NotNil(t, first.LastLapTime)
	assert.Equal(t, "1:03.000", *first.LastLapTime)
	assert.Nil(t, first.BestLapTime)

	info := s.Info()
	require.NotNil(t, info.LastLap)
	assert.Equal(t, 3, *info.LastLap)
	assert.True(t, info.DriverFound)
	assert.Equal(t, "active", info.State)
	assert.Empty(t, pub.events(EventDriverNotFound))
}

func TestSessionDriverNotFoundSignalledOnce(t *testing.T) {
	src, pub := &fakeSource{}, &fakePublisher{}
	s := newTestSession(src, pub)
	require.NoError(t, s.Start(context.Background()))

	sub := src.last()
	sub.push(emptyEvent())
	sub.push(emptyEvent())
	sub.push(emptyEvent())

	nf := pub.events(EventDriverNotFound)
	require.Len(t, nf, 1)
	assert.Equal(t, "group", nf[0].Kind)
	assert.Equal(t, "Smith", nf[0].Target)
	assert.Nil(t, nf[0].Data)
}

func TestSessionDriverDisappearsSilently(t *testing.T) {
	src, pub := &fakeSource{}, &fakePublisher{}
	s := newTestSession(src, pub)
	require.NoError(t, s.Start(context.Background()))

	sub := src.last()
	sub.push(lapEvent("Smith", "1"))
	sub.push(emptyEvent())
	sub.push(emptyEvent())
	sub.push(lapEvent("Smith", "1"))
	sub.push(lapEvent("Smith", "2"))

	assert.Empty(t, pub.events(EventDriverNotFound))
	assert.Len(t, pub.events(EventLapData), 2)
}

func TestSessionFoundWithoutLapPublishesNothing(t *testing.T) {
	src, pub := &fakeSource{}, &fakePublisher{}
	s := newTestSession(src, pub)
	require.NoError(t, s.Start(context.Background()))

	src.last().push(lapEvent("Smith", ""))
	src.last().push(emptyEvent())

	assert.Empty(t, pub.all())
	assert.True(t, s.Info().DriverFound)
}

func TestSessionSetupFailure(t *testing.T) {
	src := &fakeSource{err: pkgerrors.NewSetupError("feed", errors.New("connection refused"))}
	pub := &fakePublisher{}
	s := newTestSession(src, pub)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsSetupError(err))
	assert.Equal(t, "setup of feed failed: connection refused", err.Error())
	assert.Equal(t, StateClosed, s.Phase())

	calls := pub.all()
	require.Len(t, calls, 1)
	assert.Equal(t, emitted{Kind: "client", Target: "c1", Event: EventError, Data: MsgInternalError}, calls[0])

	assert.NoError(t, s.Stop(), "stop after failed start returns")
}

func TestSessionStopIsSynchronousAndIdempotent(t *testing.T) {
	src, pub := &fakeSource{}, &fakePublisher{}
	s := newTestSession(src, pub)
	require.NoError(t, s.Start(context.Background()))
	sub := src.last()

	require.NoError(t, s.Stop())
	assert.True(t, sub.closed.Load())
	assert.Equal(t, StateClosed, s.Phase())

	sub.h(lapEvent("Smith", "7"))
	assert.Empty(t, pub.all(), "events after stop are dropped")

	require.NoError(t, s.Stop())
	assert.Equal(t, 0, src.open())
}

func TestSessionStopDuringSetup(t *testing.T) {
	src, pub := &fakeSource{block: true}, &fakePublisher{}
	s := newTestSession(src, pub)

	errc := make(chan error, 1)
	go func() { errc <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.starting != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	err := <-errc
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.Equal(t, StateClosed, s.Phase())
	assert.Empty(t, pub.all(), "no error signal for a canceled setup")
}

func TestSessionStopBeforeStart(t *testing.T) {
	src, pub := &fakeSource{}, &fakePublisher{}
	s := newTestSession(src, pub)

	require.NoError(t, s.Stop())
	assert.True(t, pkgerrors.IsCanceled(s.Start(context.Background())))
	assert.Nil(t, src.last())
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "closing", StateClosing.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", SessionState(42).String())
}
