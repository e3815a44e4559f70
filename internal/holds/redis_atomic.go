package holds

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AtomicRedisOperations handles atomic Redis operations for slot holding
type AtomicRedisOperations struct {
	redis *redis.Client
}

// NewAtomicRedisOperations creates a new atomic Redis operations handler
func NewAtomicRedisOperations(redisClient *redis.Client) *AtomicRedisOperations {
	return &AtomicRedisOperations{
		redis: redisClient,
	}
}

// Lua script for atomic slot holding - prevents race conditions between
// two sessions grabbing the same court slot
const luaAtomicSlotHold = `
-- KEYS[1] = hold_id
-- ARGV[1] = session_id
-- ARGV[2] = ttl_seconds
-- ARGV[3..N] = slot_keys

local hold_id = KEYS[1]
local session_id = ARGV[1]
local ttl = tonumber(ARGV[2])

-- Check if all slots are available (not held)
for i = 3, #ARGV do
    local slot_key = ARGV[i]
    local slot_hold_key = "courtside:slot_hold:" .. slot_key

    if redis.call("EXISTS", slot_hold_key) == 1 then
        -- Slot is already held, return failure with the conflicting slot
        return {0, slot_key}
    end
end

-- All slots are available, hold them atomically
local hold_key = "courtside:hold:" .. hold_id
local hold_slots_key = "courtside:hold_slots:" .. hold_id
local created_at = redis.call("TIME")[1]

-- Create hold metadata
redis.call("HMSET", hold_key,
    "session_id", session_id,
    "slot_count", #ARGV - 2,
    "created_at", created_at
)
redis.call("EXPIRE", hold_key, ttl)

-- Hold individual slots and add to hold set
for i = 3, #ARGV do
    local slot_key = ARGV[i]
    local slot_hold_key = "courtside:slot_hold:" .. slot_key
    local hold_value = session_id .. ":" .. hold_id

    redis.call("SETEX", slot_hold_key, ttl, hold_value)
    redis.call("SADD", hold_slots_key, slot_key)
end

-- Set expiry for hold slots set
redis.call("EXPIRE", hold_slots_key, ttl)

-- Return success
return {1, "success"}
`

// Lua script for atomic slot release. Releasing a hold that no longer
// exists is a success with zero slots released, so release stays
// idempotent end to end.
const luaAtomicSlotRelease = `
-- KEYS[1] = hold_id
local hold_id = KEYS[1]

local hold_key = "courtside:hold:" .. hold_id
local hold_slots_key = "courtside:hold_slots:" .. hold_id

-- Already gone (expired or previously released): nothing to do
if redis.call("EXISTS", hold_key) == 0 then
    return {1, 0}
end

-- Get all slots in this hold
local slot_keys = redis.call("SMEMBERS", hold_slots_key)

-- Release individual slot holds
for i = 1, #slot_keys do
    local slot_hold_key = "courtside:slot_hold:" .. slot_keys[i]
    redis.call("DEL", slot_hold_key)
end

-- Clean up hold metadata
redis.call("DEL", hold_key)
redis.call("DEL", hold_slots_key)

return {1, #slot_keys}
`

// AtomicHoldSlots atomically holds multiple slots using Lua script
func (a *AtomicRedisOperations) AtomicHoldSlots(ctx context.Context, slotKeys []string, sessionID, holdID string, ttl time.Duration) error {
	if a.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	keys := []string{holdID}
	args := []interface{}{
		sessionID,
		strconv.Itoa(int(ttl.Seconds())),
	}
	for _, slotKey := range slotKeys {
		args = append(args, slotKey)
	}

	result, err := a.redis.EvalSha(ctx, luaAtomicSlotHold, keys, args...).Result()
	if err != nil {
		// If script is not loaded, try to load and execute
		result, err = a.redis.Eval(ctx, luaAtomicSlotHold, keys, args...).Result()
		if err != nil {
			return fmt.Errorf("failed to execute atomic slot hold: %w", err)
		}
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from Lua script")
	}

	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in Lua script result")
	}

	if success == 0 {
		conflictSlot, ok := resultArray[1].(string)
		if ok {
			return fmt.Errorf("%w: %s", ErrSlotUnavailable, conflictSlot)
		}
		return ErrSlotUnavailable
	}

	return nil
}

// AtomicReleaseHold atomically releases a hold using Lua script. Returns
// the number of slots freed; zero means the hold was already gone.
func (a *AtomicRedisOperations) AtomicReleaseHold(ctx context.Context, holdID string) (int, error) {
	if a.redis == nil {
		return 0, fmt.Errorf("redis client not available")
	}

	result, err := a.redis.EvalSha(ctx, luaAtomicSlotRelease, []string{holdID}).Result()
	if err != nil {
		// If script is not loaded, try to load and execute
		result, err = a.redis.Eval(ctx, luaAtomicSlotRelease, []string{holdID}).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to execute atomic slot release: %w", err)
		}
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return 0, fmt.Errorf("unexpected result format from Lua script")
	}

	success, ok := resultArray[0].(int64)
	if !ok {
		return 0, fmt.Errorf("invalid success flag in Lua script result")
	}
	if success == 0 {
		return 0, fmt.Errorf("failed to release hold")
	}

	releasedCount, ok := resultArray[1].(int64)
	if !ok {
		return 0, fmt.Errorf("invalid released count in Lua script result")
	}

	return int(releasedCount), nil
}

// PreloadScripts loads Lua scripts into Redis for better performance
func (a *AtomicRedisOperations) PreloadScripts(ctx context.Context) error {
	if a.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	_, err := a.redis.ScriptLoad(ctx, luaAtomicSlotHold).Result()
	if err != nil {
		return fmt.Errorf("failed to load slot hold script: %w", err)
	}

	_, err = a.redis.ScriptLoad(ctx, luaAtomicSlotRelease).Result()
	if err != nil {
		return fmt.Errorf("failed to load slot release script: %w", err)
	}

	return nil
}
