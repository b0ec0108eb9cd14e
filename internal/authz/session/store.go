// Package session keeps per-browser state between the steps of an
// authorization flow: the pending interaction ticket between /authorize and
// /consent, and the sample client's PKCE state.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound means the key is absent or expired.
var ErrNotFound = errors.New("session not found")

// Store is a key-value capability with per-entry expiry.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. A zero ttl uses the store's
	// default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
