package availability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

// Cache holds the public read model of a mentor's weekly availability.
//
// Entries are tagged with a per-mentor generation. Get reports the current
// generation even on a miss; Set only lands if Invalidate has not moved the
// generation since, so a reader that loaded rows before a committed change
// cannot publish them afterwards.
type Cache interface {
	Get(ctx context.Context, mentorID uuid.UUID) (slots []*repo.AvailabilitySlot, gen int64, ok bool)
	Set(ctx context.Context, mentorID uuid.UUID, gen int64, slots []*repo.AvailabilitySlot)
	Invalidate(ctx context.Context, mentorID uuid.UUID)
}

// noGen marks a generation that could not be read; Set ignores it.
const noGen int64 = -1

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context, uuid.UUID) ([]*repo.AvailabilitySlot, int64, bool) {
	return nil, noGen, false
}
func (NopCache) Set(context.Context, uuid.UUID, int64, []*repo.AvailabilitySlot) {}
func (NopCache) Invalidate(context.Context, uuid.UUID)                           {}

// RedisCache stores the slot list as JSON under a key suffixed with the
// mentor's generation counter. Invalidate bumps the counter, which orphans
// every earlier entry, including ones written late by slow readers; those
// expire with the TTL. Redis failures degrade to a miss.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func genKey(mentorID uuid.UUID) string {
	return "mentorbook:availability:" + mentorID.String() + ":gen"
}

func entryKey(mentorID uuid.UUID, gen int64) string {
	return "mentorbook:availability:" + mentorID.String() + ":" + strconv.FormatInt(gen, 10)
}

func (c *RedisCache) generation(ctx context.Context, mentorID uuid.UUID) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(mentorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Get(ctx context.Context, mentorID uuid.UUID) ([]*repo.AvailabilitySlot, int64, bool) {
	gen, err := c.generation(ctx, mentorID)
	if err != nil {
		slog.WarnContext(ctx, "availability cache generation read failed", "mentor_id", mentorID, "error", err)
		return nil, noGen, false
	}

	raw, err := c.rdb.Get(ctx, entryKey(mentorID, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "availability cache read failed", "mentor_id", mentorID, "error", err)
		}
		return nil, gen, false
	}
	var slots []*repo.AvailabilitySlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		slog.WarnContext(ctx, "availability cache entry is corrupt", "mentor_id", mentorID, "error", err)
		return nil, gen, false
	}
	return slots, gen, true
}

func (c *RedisCache) Set(ctx context.Context, mentorID uuid.UUID, gen int64, slots []*repo.AvailabilitySlot) {
	if gen == noGen {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, entryKey(mentorID, gen), raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "availability cache write failed", "mentor_id", mentorID, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, mentorID uuid.UUID) {
	if err := c.rdb.Incr(ctx, genKey(mentorID)).Err(); err != nil {
		slog.WarnContext(ctx, "availability cache invalidation failed", "mentor_id", mentorID, "error", err)
	}
}
