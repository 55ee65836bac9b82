// Package store defines the key-value surface the synchronizer runs on:
// read a room's aggregate at its code, replace it, delete it, and for
// push-capable backends subscribe to changes at that code. Consistency is
// eventually-consistent multi-reader broadcast; the synchronizer layers
// its own per-room write discipline on top.
package store

import (
	"context"
	"errors"

	"github.com/scythe504/partydeck-backend/internal"
)

// ErrNotFound is returned by Get for codes with no stored state.
var ErrNotFound = errors.New("room state not found")

// Store is the minimal surface every backend provides. Implementations
// must return isolated snapshots: mutating a value obtained from Get, or
// one previously passed to Put, must not alter stored state.
type Store interface {
	Get(ctx context.Context, code string) (*internal.GameState, error)
	Put(ctx context.Context, code string, state *internal.GameState) error
	Delete(ctx context.Context, code string) error

	// Codes lists every stored room code, for TTL sweeping.
	Codes(ctx context.Context) ([]string, error)
}

// Watchable is implemented by realtime backends that can push changes.
// The callback receives an isolated snapshot after each committed Put for
// the code; the returned func cancels the subscription.
type Watchable interface {
	Store
	Watch(code string, fn func(*internal.GameState)) (func(), error)
}
