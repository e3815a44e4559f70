package holds

import (
	"context"
	"errors"
	"time"

	"courtside/internal/shared/constants"
	"courtside/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// Repository persists hold recovery records and answers slot ownership
// queries. Everything here lives in Redis; holds have no database rows.
type Repository interface {
	SaveSessionHold(ctx context.Context, sessionID string, record *HoldRecord, ttl time.Duration) error
	// GetSessionHold returns (nil, nil) when there is nothing to recover.
	// A malformed or schema-mismatched record is purged and reported as a
	// miss, never as an error.
	GetSessionHold(ctx context.Context, sessionID string) (*HoldRecord, error)
	DeleteSessionHold(ctx context.Context, sessionID string) error

	HoldExists(ctx context.Context, holdID string) (bool, error)
	HeldSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error)
}

type repository struct {
	redis        *redis.Client
	cacheService cache.Service
}

func NewRepository(redisClient *redis.Client, cacheService cache.Service) Repository {
	return &repository{
		redis:        redisClient,
		cacheService: cacheService,
	}
}

func (r *repository) SaveSessionHold(ctx context.Context, sessionID string, record *HoldRecord, ttl time.Duration) error {
	key := constants.BuildSessionHoldKey(sessionID)
	return r.cacheService.Set(ctx, key, record, ttl)
}

func (r *repository) GetSessionHold(ctx context.Context, sessionID string) (*HoldRecord, error) {
	key := constants.BuildSessionHoldKey(sessionID)

	var record HoldRecord
	err := r.cacheService.Get(ctx, key, &record)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		if errors.Is(err, cache.ErrCacheCorrupt) {
			_ = r.cacheService.Delete(ctx, key)
			return nil, nil
		}
		return nil, err
	}

	if record.Version != constants.HoldRecordVersion {
		// Old schema: purge and treat as nothing to recover
		_ = r.cacheService.Delete(ctx, key)
		return nil, nil
	}

	return &record, nil
}

func (r *repository) DeleteSessionHold(ctx context.Context, sessionID string) error {
	return r.cacheService.Delete(ctx, constants.BuildSessionHoldKey(sessionID))
}

func (r *repository) HoldExists(ctx context.Context, holdID string) (bool, error) {
	n, err := r.redis.Exists(ctx, constants.BuildHoldKey(holdID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) HeldSlotKeys(ctx context.Context, slotKeys []string) (map[string]bool, error) {
	held := make(map[string]bool, len(slotKeys))
	if len(slotKeys) == 0 {
		return held, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(slotKeys))
	for i, slotKey := range slotKeys {
		cmds[i] = pipe.Exists(ctx, constants.BuildSlotHoldKey(slotKey))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			held[slotKeys[i]] = true
		}
	}
	return held, nil
}
