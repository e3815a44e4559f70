package constants

import (
	"fmt"
	"time"
)

// Redis key patterns for the reservation flow.
// Session slot keys use a hash-tag on the session id so both slots of one
// session land on the same cluster node.
const (
	// Slot ownership. One key per court slot, value is the owning hold id.
	SlotHoldKeyPrefix = "courtside:slot_hold:"

	// Hold metadata, keyed by hold id.
	HoldKeyPrefix      = "courtside:hold:"
	HoldSlotsKeyPrefix = "courtside:hold_slots:"

	// Session recovery slots.
	SessionHoldKeyFormat    = "courtside:session:{%s}:hold"
	SessionBookingKeyFormat = "courtside:session:{%s}:booking"

	// General cache.
	VenueCacheKeyPrefix     = "courtside:cache:venue:"
	CourtSlotsCacheKeyFormat = "courtside:cache:court:%s:slots:%s"

	// Rate limiting.
	RateLimitKeyPrefix = "courtside:ratelimit:"
)

// Record schema versions. A record read back with a different version is
// treated as a cache miss, never a parse error.
const (
	HoldRecordVersion    = 1
	BookingRecordVersion = 1
)

// Default TTLs. Runtime values come from config; these are the fallbacks
// used by callers that have no config in scope (tests, seed tooling).
const (
	DefaultHoldTTL    = 5 * time.Minute
	DefaultSessionTTL = 2 * time.Hour
	DefaultCacheTTL   = 1 * time.Hour
)

// BuildSlotHoldKey returns the ownership key for a single court slot.
func BuildSlotHoldKey(slotKey string) string {
	return SlotHoldKeyPrefix + slotKey
}

// BuildHoldKey returns the metadata key for a hold.
func BuildHoldKey(holdID string) string {
	return HoldKeyPrefix + holdID
}

// BuildHoldSlotsKey returns the key of the set listing a hold's slots.
func BuildHoldSlotsKey(holdID string) string {
	return HoldSlotsKeyPrefix + holdID
}

// BuildSessionHoldKey returns the hold recovery slot key for a session.
func BuildSessionHoldKey(sessionID string) string {
	return fmt.Sprintf(SessionHoldKeyFormat, sessionID)
}

// BuildSessionBookingKey returns the booking recovery slot key for a session.
func BuildSessionBookingKey(sessionID string) string {
	return fmt.Sprintf(SessionBookingKeyFormat, sessionID)
}

// BuildVenueCacheKey returns the cache key for a venue's detail payload.
func BuildVenueCacheKey(venueID string) string {
	return VenueCacheKeyPrefix + venueID
}

// BuildCourtSlotsCacheKey returns the cache key for a court's slot listing
// on a given date (YYYY-MM-DD).
func BuildCourtSlotsCacheKey(courtID, date string) string {
	return fmt.Sprintf(CourtSlotsCacheKeyFormat, courtID, date)
}
