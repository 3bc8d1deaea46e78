package memory

import (
	"context"
	"sync"
	"time"

	"lodging/internal/app/dto"
	"lodging/internal/app/policies"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

type cacheKey struct {
	room       domainrooms.RoomID
	generation int64
	from, to   time.Time
}

type cacheItem struct {
	value   dto.RoomAvailability
	expires time.Time
}

// AvailabilityCache is the in-process policies.AvailabilityCache used when no
// Redis is configured.
type AvailabilityCache struct {
	mu          sync.Mutex
	ttl         time.Duration
	generations map[domainrooms.RoomID]int64
	items       map[cacheKey]cacheItem
	now         func() time.Time
}

func NewAvailabilityCache(ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{
		ttl:         ttl,
		generations: make(map[domainrooms.RoomID]int64),
		items:       make(map[cacheKey]cacheItem),
		now:         time.Now,
	}
}

func (c *AvailabilityCache) Generation(ctx context.Context, room domainrooms.RoomID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[room], nil
}

func (c *AvailabilityCache) Get(ctx context.Context, room domainrooms.RoomID, generation int64, window daterange.Window) (dto.RoomAvailability, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{room: room, generation: generation, from: window.From, to: window.To}
	item, ok := c.items[key]
	if !ok {
		return dto.RoomAvailability{}, false, nil
	}
	if c.now().After(item.expires) {
		delete(c.items, key)
		return dto.RoomAvailability{}, false, nil
	}
	return item.value, true, nil
}

func (c *AvailabilityCache) Put(ctx context.Context, room domainrooms.RoomID, generation int64, window daterange.Window, value dto.RoomAvailability) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generations[room] {
		return nil
	}
	key := cacheKey{room: room, generation: generation, from: window.From, to: window.To}
	c.items[key] = cacheItem{value: value, expires: c.now().Add(c.ttl)}
	return nil
}

// Invalidate bumps the room generation and drops its items.
func (c *AvailabilityCache) Invalidate(ctx context.Context, room domainrooms.RoomID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[room]++
	for key := range c.items {
		if key.room == room {
			delete(c.items, key)
		}
	}
	return nil
}

var _ policies.AvailabilityCache = (*AvailabilityCache)(nil)
