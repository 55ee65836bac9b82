// Package gamesync is the transport-agnostic state synchronizer: one
// contract over three interchangeable transports (poll against a shared
// store, push-subscribe against a realtime store, peer broadcast with a
// storage-backed replica). Callers switch transports without changing call
// sites; every transport enforces the same room, player and lifecycle
// invariants.
package gamesync

import (
	"context"
	"time"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/game"
)

// Synchronizer is the uniform contract every transport satisfies.
type Synchronizer interface {
	// Create opens a fresh waiting room and returns its shareable code
	// plus the host's player id.
	Create(ctx context.Context, hostName string) (roomCode, playerID string, err error)

	// Join adds a player to a waiting room below capacity.
	Join(ctx context.Context, roomCode, playerName string) (playerID string, err error)

	// Read returns a presence-annotated snapshot of the room. Players past
	// the hard absence threshold are pruned before the snapshot is taken;
	// a room pruned empty is removed.
	Read(ctx context.Context, roomCode string) (*internal.GameState, error)

	// Start begins the countdown. Host only, waiting rooms only. The
	// countdown -> playing advance is scheduled here and fires on its own.
	Start(ctx context.Context, roomCode, playerID string) error

	// Act advances the player's card cursor by one.
	Act(ctx context.Context, roomCode, playerID string, action game.Action) error

	// Leave removes the player; an emptied room is destroyed. Leaving is
	// never an error.
	Leave(ctx context.Context, roomCode, playerID string) error

	// Subscribe delivers presence-annotated snapshots after each observed
	// change. The returned func cancels the subscription.
	Subscribe(roomCode string, onChange func(*internal.GameState)) (func(), error)

	// Close stops countdowns, heartbeats and sweepers owned by this
	// synchronizer.
	Close() error
}

// Options tune the time-driven behavior. Zero values take the production
// defaults; a negative interval disables that background operation, which
// the tests use to control time themselves.
type Options struct {
	// Countdown is the delay between countdown and playing.
	Countdown time.Duration

	// HeartbeatInterval refreshes last-seen for players created or joined
	// through this instance.
	HeartbeatInterval time.Duration

	// PollInterval drives poll-transport subscriptions and the peer
	// transport's replica reconciler.
	PollInterval time.Duration

	// RoomTTL is the idle lifetime before the sweeper discards a room.
	RoomTTL time.Duration

	// SweepInterval is how often the TTL sweeper runs.
	SweepInterval time.Duration

	// Now is the clock; tests inject their own.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Countdown == 0 {
		o.Countdown = internal.CountdownDuration
	}
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = internal.HeartbeatInterval
	}
	if o.PollInterval == 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.RoomTTL == 0 {
		o.RoomTTL = internal.RoomTTL
	}
	if o.SweepInterval == 0 {
		o.SweepInterval = time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
