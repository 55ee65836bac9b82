package gamesync

import (
	"context"
	"log"
	"time"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/game"
)

// scheduleCountdown arms the autonomous countdown -> playing advance. It
// is scheduled the moment countdown begins and fires whether or not any
// participant is still reading the room; only destroying the room (or
// closing the synchronizer) cancels it. A failed store write is retried on
// a short tick rather than aborting the room.
func (c *core) scheduleCountdown(code string) {
	ctx, cancel := context.WithCancel(c.rootCtx)

	c.mu.Lock()
	if old, ok := c.countdowns[code]; ok {
		old()
	}
	c.countdowns[code] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		timer := time.NewTimer(c.opts.Countdown)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			log.Printf("[countdown] Room %s: cancelled before expiry", code)
			return
		case <-timer.C:
		}

		retry := time.NewTicker(retryInterval(c.opts.Countdown))
		defer retry.Stop()

		for {
			done, err := c.advanceToPlaying(ctx, code)
			if done {
				c.clearCountdown(code)
				return
			}
			log.Printf("[countdown] Room %s: advance failed, retrying: %v", code, err)

			select {
			case <-ctx.Done():
				return
			case <-retry.C:
			}
		}
	}()
}

// advanceToPlaying commits countdown -> playing. It reports done when the
// advance was written, when the room no longer exists, or when someone
// else already moved the status on.
func (c *core) advanceToPlaying(ctx context.Context, code string) (bool, error) {
	_, err := c.mutate(ctx, code, func(state *internal.GameState) error {
		if state.Status != internal.StatusCountdown {
			return internal.ErrInvalidState("Room is no longer counting down")
		}
		return game.Transition(state, internal.StatusPlaying, c.now())
	})
	if err == nil {
		log.Printf("[countdown] Room %s: now playing", code)
		return true, nil
	}
	switch internal.KindOf(err) {
	case internal.ErrKindNotFound, internal.ErrKindInvalidState:
		return true, nil
	}
	return false, err
}

func (c *core) clearCountdown(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.countdowns[code]; ok {
		cancel()
		delete(c.countdowns, code)
	}
}

func retryInterval(countdown time.Duration) time.Duration {
	if countdown < 500*time.Millisecond {
		return countdown
	}
	return 500 * time.Millisecond
}
