// Package game holds the pure room-state logic: lifecycle transitions,
// presence bookkeeping and progress resolution. Nothing here talks to a
// store or a clock directly; callers pass the current time in and commit
// the mutated aggregate themselves.
package game

import (
	"log"

	"github.com/scythe504/partydeck-backend/internal"
)

// statusOrder fixes the one legal path through the lifecycle:
// waiting -> countdown -> playing -> finished. No backward edges.
var statusOrder = map[internal.RoomStatus]int{
	internal.StatusWaiting:   0,
	internal.StatusCountdown: 1,
	internal.StatusPlaying:   2,
	internal.StatusFinished:  3,
}

// CanTransition reports whether from -> to is the single valid next step.
func CanTransition(from, to internal.RoomStatus) bool {
	fo, ok1 := statusOrder[from]
	to2, ok2 := statusOrder[to]
	return ok1 && ok2 && to2 == fo+1
}

// Transition advances the room status, or rejects the attempt with an
// InvalidState error. An invalid transition is a reported failure for the
// caller, never a fatal condition.
func Transition(state *internal.GameState, to internal.RoomStatus, now int64) error {
	if !CanTransition(state.Status, to) {
		log.Printf("[Transition] Room %s: rejected %s -> %s", state.RoomCode, state.Status, to)
		return internal.ErrInvalidState("Room is not in the right phase for that")
	}
	state.Status = to
	state.Touch(now)
	return nil
}

// StartByHost validates and applies the host's start request: the caller
// must exist, must be the host, and the room must still be waiting. On
// success the room enters countdown; the countdown -> playing advance is
// scheduled by the synchronizer, not here.
func StartByHost(state *internal.GameState, playerID string, now int64) error {
	p := state.Player(playerID)
	if p == nil {
		return internal.ErrPlayerNotFound()
	}
	if !p.IsHost {
		log.Printf("[StartByHost] Room %s: non-host %s attempted start", state.RoomCode, playerID)
		return internal.ErrNotHost()
	}
	if state.Status != internal.StatusWaiting {
		return internal.ErrInvalidState("Game already started")
	}
	return Transition(state, internal.StatusCountdown, now)
}

// Join admits a new player while the room is waiting and below capacity.
func Join(state *internal.GameState, player *internal.Player, now int64) error {
	if state.Status != internal.StatusWaiting {
		return internal.ErrAlreadyStarted()
	}
	if state.PlayerCount() >= internal.MaxPlayersPerRoom {
		return internal.ErrRoomFull()
	}
	state.Players[player.Id] = player
	state.Touch(now)
	log.Printf("[Join] Room %s: player %s (%s) joined, %d/%d players",
		state.RoomCode, player.Id, player.Name, state.PlayerCount(), internal.MaxPlayersPerRoom)
	return nil
}

// Leave removes a player. Removing the last player empties the room; the
// caller is responsible for destroying it. Leaving is always ok, even if
// the player was already gone.
func Leave(state *internal.GameState, playerID string, now int64) {
	if _, ok := state.Players[playerID]; !ok {
		return
	}
	delete(state.Players, playerID)
	state.Touch(now)
	log.Printf("[Leave] Room %s: player %s left, %d players remain",
		state.RoomCode, playerID, state.PlayerCount())
}
