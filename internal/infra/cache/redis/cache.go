// Package redis keeps resolved availability in Redis so every instance shares
// one cache. Each room has a generation counter; entries are written under the
// generation they were computed for and Invalidate increments it.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"lodging/internal/app/dto"
	"lodging/internal/app/policies"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

const keyPrefix = "lodging:availability:"

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type AvailabilityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewAvailabilityCache(client redis.UniversalClient, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

func generationKey(room domainrooms.RoomID) string {
	return keyPrefix + "gen:" + string(room)
}

func entryKey(room domainrooms.RoomID, generation int64, window daterange.Window) string {
	return fmt.Sprintf("%s%s:%d:%s:%s", keyPrefix, room, generation,
		daterange.FormatDay(window.From), daterange.FormatDay(window.To))
}

func (c *AvailabilityCache) Generation(ctx context.Context, room domainrooms.RoomID) (int64, error) {
	return readGeneration(ctx, c.client, room)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter, room domainrooms.RoomID) (int64, error) {
	raw, err := cmd.Get(ctx, generationKey(room)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *AvailabilityCache) Get(ctx context.Context, room domainrooms.RoomID, generation int64, window daterange.Window) (dto.RoomAvailability, bool, error) {
	data, err := c.client.Get(ctx, entryKey(room, generation, window)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dto.RoomAvailability{}, false, nil
	}
	if err != nil {
		return dto.RoomAvailability{}, false, err
	}
	var value dto.RoomAvailability
	if err := json.Unmarshal(data, &value); err != nil {
		return dto.RoomAvailability{}, false, err
	}
	return value, true, nil
}

// Put stores value only while generation is still current. The generation
// key is watched so an Invalidate racing with Put aborts the write.
func (c *AvailabilityCache) Put(ctx context.Context, room domainrooms.RoomID, generation int64, window daterange.Window, value dto.RoomAvailability) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, room)
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, entryKey(room, generation, window), data, c.ttl)
			return nil
		})
		return err
	}, generationKey(room))
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate moves the room to a new generation. Entries of older generations
// are never read again and expire on their own.
func (c *AvailabilityCache) Invalidate(ctx context.Context, room domainrooms.RoomID) error {
	return c.client.Incr(ctx, generationKey(room)).Err()
}

var _ policies.AvailabilityCache = (*AvailabilityCache)(nil)
