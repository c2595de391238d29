// Package cache defines the ephemeral token cache: a key/value store with
// per-entry expiry backing one-time email-verification and password-reset
// tokens. Entries are unreachable once their TTL elapses even without an
// explicit delete, and consumption is atomic per key.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/teamforge/iam/internal/iam/domain"
)

// ErrNotFound reports a key that does not exist or has expired.
var ErrNotFound = errors.New("cache: not found")

type Cache interface {
	// Put stores subjectID under key with the given TTL.
	Put(ctx context.Context, key, subjectID string, ttl time.Duration) error

	// Consume atomically fetches and deletes the entry, returning the stored
	// subjectID. A second Consume of the same key returns ErrNotFound, which
	// is what enforces single use under concurrent presentation.
	Consume(ctx context.Context, key string) (string, error)

	// Delete removes the entry. Idempotent: deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// TokenKey builds the cache key for an ephemeral token. The raw opaque token
// never reaches the cache; callers pass its fingerprint.
func TokenKey(purpose domain.TokenPurpose, fingerprint string) string {
	return string(purpose) + ":" + fingerprint
}
