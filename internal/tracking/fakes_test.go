package tracking

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/agentstation/laprelay/internal/feed"
	"github.com/agentstation/laprelay/pkg/timing"
)

type emitted struct {
	Kind   string // join, leave, group, client
	Target string
	Client string
	Event  string
	Data   any
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []emitted
}

func (p *fakePublisher) record(e emitted) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, e)
}

func (p *fakePublisher) Join(clientID, group string) {
	p.record(emitted{Kind: "join", Target: group, Client: clientID})
}

func (p *fakePublisher) Leave(clientID, group string) {
	p.record(emitted{Kind: "leave", Target: group, Client: clientID})
}

func (p *fakePublisher) EmitToGroup(group, event string, data any) {
	p.record(emitted{Kind: "group", Target: group, Event: event, Data: data})
}

func (p *fakePublisher) EmitToClient(clientID, event string, data any) {
	p.record(emitted{Kind: "client", Target: clientID, Event: event, Data: data})
}

func (p *fakePublisher) all() []emitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]emitted(nil), p.calls...)
}

func (p *fakePublisher) events(event string) []emitted {
	var out []emitted
	for _, c := range p.all() {
		if c.Event == event {
			out = append(out, c)
		}
	}
	return out
}

func (p *fakePublisher) memberships(kind string) []emitted {
	var out []emitted
	for _, c := range p.all() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

type fakeSub struct {
	h      feed.Handler
	url    string
	closed atomic.Bool
}

func (s *fakeSub) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSub) push(evt *timing.RawEvent) {
	if !s.closed.Load() {
		s.h(evt)
	}
}

type fakeSource struct {
	mu    sync.Mutex
	subs  []*fakeSub
	err   error
	block bool
}

func (f *fakeSource) Subscribe(ctx context.Context, url string, h feed.Handler) (io.Closer, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	sub := &fakeSub{h: h, url: url}
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeSource) last() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeSource) open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if !s.closed.Load() {
			n++
		}
	}
	return n
}

type countingObserver struct {
	started, failed atomic.Int32
}

func (o *countingObserver) SessionStarted() { o.started.Add(1) }
func (o *countingObserver) SetupFailed()    { o.failed.Add(1) }

// lapEvent builds a feed event where driver has id 5 and is on lap.
// An empty lap leaves the lap cell blank.
func lapEvent(driver, lap string) *timing.RawEvent {
	return timing.NewRawEvent(
		[2]string{"title", "Live timing"},
		[2]string{"r_data_5", `<td class="name">` + driver + `</td><td id="lapsr_5">` + lap + `</td><td id="lastlapr_5">1:0` + lap + `.000</td>`},
		[2]string{"r_data_6", `<td class="name">Jones</td><td id="lapsr_6">9</td>`},
	)
}

func emptyEvent() *timing.RawEvent {
	return timing.NewRawEvent([2]string{"r_data_6", `<td>Jones</td>`})
}

const testFeedURL = "https://timing.example.com/pl/api/live_www__tid_60_h_abc"
