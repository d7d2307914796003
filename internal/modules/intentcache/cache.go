// README: Extraction result cache keyed by normalized utterance.
package intentcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"tripflow/internal/intent"
)

// Cache stores lexical extraction results so identical utterances skip
// the extractor entirely. Implementations must return a copy the caller
// can mutate freely.
type Cache interface {
	Get(ctx context.Context, key string) (*intent.TripIntent, bool, error)
	Put(ctx context.Context, key string, ti *intent.TripIntent) error
}

// Key derives the cache key for a normalized utterance. Hashing keeps
// arbitrary user text out of storage keys.
func Key(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
