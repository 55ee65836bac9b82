package gamesync

import (
	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/game"
	"github.com/scythe504/partydeck-backend/internal/store"
)

// Push is the realtime transport: the backing store broadcasts every
// committed write to subscribers, so readers see changes without polling.
type Push struct {
	*core
	watchable store.Watchable
}

func NewPush(s store.Watchable, opts Options) *Push {
	return &Push{core: newCore(s, opts), watchable: s}
}

// Subscribe delegates to the store's change feed. Presence is annotated at
// delivery time so subscribers see the same derived connected flags a Read
// would produce.
func (p *Push) Subscribe(roomCode string, onChange func(*internal.GameState)) (func(), error) {
	return p.watchable.Watch(roomCode, func(state *internal.GameState) {
		game.Annotate(state, p.now())
		onChange(state)
	})
}

var _ Synchronizer = (*Push)(nil)
var _ Synchronizer = (*Poll)(nil)
