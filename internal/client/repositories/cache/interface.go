// Package cache stores the client's offline snapshot as key/value rows in
// SQLite.
package cache

import "context"

// Repository is the key/value surface localcache persists through. Get
// returns nil, nil for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}
