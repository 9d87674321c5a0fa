package adapters

import (
	"github.com/agentstation/laprelay/internal/server/cache"
	"github.com/agentstation/laprelay/internal/server/events"
	"github.com/agentstation/laprelay/pkg/timing"
)

// CacheSubscriber keeps the latest lapData of each driver group.
type CacheSubscriber struct {
	cache *cache.Cache
}

// NewCacheSubscriber creates a subscriber that writes into c.
func NewCacheSubscriber(c *cache.Cache) *CacheSubscriber {
	return &CacheSubscriber{cache: c}
}

// Send records lapData payloads. Other clients may still be publishing
// for a group that one session reports missing, so snapshots only expire.
func (s *CacheSubscriber) Send(event events.Event) error {
	if event.Group == "" {
		return nil
	}
	if event.Type != events.LapData {
		return nil
	}
	if rec, ok := event.Data.(timing.LapRecord); ok {
		s.cache.SetLap(event.Group, rec)
	}
	return nil
}

// Close is a no-op.
func (s *CacheSubscriber) Close() error {
	return nil
}
