// Package store keeps server-side writing sessions between requests.
package store

import (
	"context"
	"errors"

	"auramythos/generator"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store persists session snapshots.
type Store interface {
	Save(ctx context.Context, snap generator.Snapshot) error
	Load(ctx context.Context, id string) (generator.Snapshot, error)
	Delete(ctx context.Context, id string) error
}
