package domain

import (
	"encoding/json"
	"time"
)

// CacheEntry is one content-addressed record in the research cache.
// QueryHash is the key: a SHA-256 of the normalized query text. Results is
// an opaque payload owned by whoever computed it. HitCount and
// LastAccessedAt are updated on every reuse.
type CacheEntry struct {
	QueryHash      string          `json:"query_hash" db:"query_hash"`
	QueryText      string          `json:"query_text" db:"query_text"`
	Results        json.RawMessage `json:"results" db:"results"`
	Source         string          `json:"source" db:"source"`
	ExpiresAt      time.Time       `json:"expires_at" db:"expires_at"`
	HitCount       int             `json:"hit_count" db:"hit_count"`
	LastAccessedAt time.Time       `json:"last_accessed_at" db:"last_accessed_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Expired reports whether the entry is logically expired at the given
// instant. An expired entry must be treated as a miss even if the backing
// store has not physically evicted it yet.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
