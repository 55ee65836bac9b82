package game

import (
	"log"

	"github.com/scythe504/partydeck-backend/internal"
)

// Presence is derived entirely from per-player last-seen timestamps, so
// backends without an explicit leave signal (push store, peer broadcast)
// still converge on the same player set. Two thresholds apply: past the
// soft threshold a player shows as disconnected, past the hard threshold
// the player is pruned from the room.

// Touch records the current time as the player's last-seen.
func Touch(state *internal.GameState, playerID string, now int64) error {
	p := state.Player(playerID)
	if p == nil {
		return internal.ErrPlayerNotFound()
	}
	p.LastSeen = now
	p.Connected = true
	return nil
}

// Annotate refreshes every player's derived connected flag against now.
// It mutates only the flag, never the stored timestamps.
func Annotate(state *internal.GameState, now int64) {
	soft := internal.SoftAbsenceThreshold.Milliseconds()
	for _, p := range state.Players {
		p.Connected = now-p.LastSeen < soft
	}
}

// Prune removes players silent beyond the hard threshold and returns their
// ids. A room pruned to zero players should be destroyed by the caller.
func Prune(state *internal.GameState, now int64) []string {
	hard := internal.HardAbsenceThreshold.Milliseconds()
	var removed []string
	for id, p := range state.Players {
		if now-p.LastSeen >= hard {
			delete(state.Players, id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		log.Printf("[Prune] Room %s: removed %d absent players, %d remain",
			state.RoomCode, len(removed), state.PlayerCount())
	}
	return removed
}
