package constants

import (
	"time"
)

// Redis Cache Configuration
// Pattern: showbook:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_SEMI_STATIC_SHORT = 1 * time.Hour   // 1 hour - for reports
	TTL_DYNAMIC_SHORT     = 5 * time.Minute // 5 minutes - for capacity snapshots
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "showbook"
)

// ================== EVENTS MODULE ==================

const (
	CACHE_KEY_EVENT_SNAPSHOT  = CACHE_PREFIX + ":events:snapshot:uuid:" // + event-id
	CACHE_KEY_EVENT_TYPE_MIGR = CACHE_PREFIX + ":events:type_migration" // last applied migration report
)

const (
	TTL_EVENT_SNAPSHOT = TTL_DYNAMIC_SHORT
	TTL_TYPE_MIGRATION = TTL_SEMI_STATIC_SHORT
)

// ================== RATE LIMIT MODULE ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + category:ip
)

// ================== HELPER FUNCTIONS ==================

// BuildEventSnapshotKey constructs the snapshot cache key
// Example: BuildEventSnapshotKey("3f2c...") -> "showbook:events:snapshot:uuid:3f2c..."
func BuildEventSnapshotKey(eventID string) string {
	return CACHE_KEY_EVENT_SNAPSHOT + eventID
}

func BuildRateLimitKey(category, ip string) string {
	return CACHE_KEY_RATE_LIMIT + category + ":" + ip
}
