package game

import (
	"log"

	"github.com/scythe504/partydeck-backend/internal"
)

// Action is what a player does with the current card. Both actions advance
// the cursor; completion depends only on the cursor reaching the
// threshold, not on which action moved it.
type Action string

const (
	// ActionSwipeRight reports a completed match.
	ActionSwipeRight Action = "swipe_right"
	// ActionSwipeLeft skips the card without a match.
	ActionSwipeLeft Action = "swipe_left"
)

func (a Action) Valid() bool {
	return a == ActionSwipeRight || a == ActionSwipeLeft
}

// Advance moves a player's cursor one card forward. The increment is
// strict: clients never send an index, so cursors cannot desynchronize or
// skip. Reaching the threshold finishes the room and records the winner in
// the same mutation; on an already-finished room Advance is a silent no-op
// so a racing second finisher never overwrites the first.
func Advance(state *internal.GameState, playerID string, action Action, threshold int, now int64) error {
	if state.Status == internal.StatusFinished {
		return nil
	}
	if state.Status != internal.StatusPlaying {
		return internal.ErrInvalidState("Game is not in progress")
	}
	if !action.Valid() {
		return internal.ErrInvalidState("Unknown action")
	}
	p := state.Player(playerID)
	if p == nil {
		return internal.ErrPlayerNotFound()
	}
	if p.CurrentCardIndex >= threshold {
		return nil
	}

	p.CurrentCardIndex++
	p.CardsCompleted = p.CurrentCardIndex
	p.LastSeen = now
	state.Touch(now)

	if p.CardsCompleted >= threshold {
		state.Status = internal.StatusFinished
		state.Winner = p.Id
		log.Printf("[Advance] Room %s: player %s (%s) completed %d cards, game finished",
			state.RoomCode, p.Id, p.Name, p.CardsCompleted)
	}
	return nil
}

// ProgressPercent reports a player's completion in [0, 100]. A threshold
// of zero counts as already complete.
func ProgressPercent(completed, threshold int) float64 {
	if threshold <= 0 {
		return 100
	}
	if completed >= threshold {
		return 100
	}
	return float64(completed) / float64(threshold) * 100
}
