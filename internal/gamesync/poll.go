package gamesync

import (
	"context"
	"log"
	"time"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/store"
)

// Poll is the pull transport: every reader re-reads the shared store on a
// fixed interval. Mutations are serialized per room by the store-backed
// read-modify-write in core; leave is explicit here, but presence pruning
// still runs on reads so the transport behaves the same over an unreliable
// network.
type Poll struct {
	*core
}

func NewPoll(s store.Store, opts Options) *Poll {
	return &Poll{core: newCore(s, opts)}
}

// Subscribe keeps the contract uniform for callers that expect push: it
// polls Read on the poll interval and invokes onChange only when the
// serialized snapshot differs from the last one delivered.
func (p *Poll) Subscribe(roomCode string, onChange func(*internal.GameState)) (func(), error) {
	ctx, cancel := context.WithCancel(p.rootCtx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.opts.PollInterval)
		defer ticker.Stop()

		var last []byte
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				state, err := p.Read(ctx, roomCode)
				if internal.KindOf(err) == internal.ErrKindNotFound {
					log.Printf("[Poll.Subscribe] Room %s gone, stopping", roomCode)
					return
				}
				if err != nil {
					// Stale snapshots are fine; retry next tick.
					continue
				}
				raw, err := state.MarshalBinary()
				if err != nil {
					continue
				}
				if string(raw) == string(last) {
					continue
				}
				last = raw
				onChange(state)
			}
		}
	}()

	return cancel, nil
}
