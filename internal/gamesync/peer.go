package gamesync

import (
	"log"
	"sync"
	"time"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/game"
	"github.com/scythe504/partydeck-backend/internal/store"
)

// Peer is the broadcast transport for deployments without a serializing
// store: each participant process holds its own copy of the room and
// replicates through a shared, eventually-consistent replica. Writes are
// last-write-wins in wall-clock order. Two near-simultaneous finish
// events can therefore briefly disagree on the winner; the replica's
// latest write prevails at the next reconcile.
type Peer struct {
	*core

	mu       sync.Mutex
	lastSeen map[string][]byte // serialized replica state per room
	subs     map[string]map[int]func(*internal.GameState)
	nextSub  int
	pollers  map[string]func() // reconciler cancel per room
}

func NewPeer(replica store.Store, opts Options) *Peer {
	p := &Peer{
		lastSeen: make(map[string][]byte),
		subs:     make(map[string]map[int]func(*internal.GameState)),
		pollers:  make(map[string]func()),
	}
	p.core = newCore(replica, opts)

	// Own commits go straight to local subscribers; the reconciler only
	// has to surface writes made by other peers.
	p.core.onCommit = p.handleCommit
	return p
}

// handleCommit records our own write as the latest known replica state and
// notifies subscribers. The serialized compare means republishing an
// unchanged aggregate never notifies anyone.
func (p *Peer) handleCommit(code string, state *internal.GameState) {
	raw, err := state.MarshalBinary()
	if err != nil {
		return
	}

	p.mu.Lock()
	if string(p.lastSeen[code]) == string(raw) {
		p.mu.Unlock()
		return
	}
	p.lastSeen[code] = raw
	subs := p.subscribersLocked(code)
	p.mu.Unlock()

	p.deliver(subs, state)
}

func (p *Peer) subscribersLocked(code string) []func(*internal.GameState) {
	out := make([]func(*internal.GameState), 0, len(p.subs[code]))
	for _, fn := range p.subs[code] {
		out = append(out, fn)
	}
	return out
}

func (p *Peer) deliver(subs []func(*internal.GameState), state *internal.GameState) {
	now := p.now()
	for _, fn := range subs {
		cp := state.Clone()
		game.Annotate(cp, now)
		fn(cp)
	}
}

// Subscribe registers a local observer and ensures a reconciler is
// polling the replica for this room.
func (p *Peer) Subscribe(roomCode string, onChange func(*internal.GameState)) (func(), error) {
	p.mu.Lock()
	p.nextSub++
	id := p.nextSub
	if p.subs[roomCode] == nil {
		p.subs[roomCode] = make(map[int]func(*internal.GameState))
	}
	p.subs[roomCode][id] = onChange
	p.ensureReconcilerLocked(roomCode)
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs[roomCode], id)
		if len(p.subs[roomCode]) == 0 {
			delete(p.subs, roomCode)
			if stop, ok := p.pollers[roomCode]; ok {
				stop()
				delete(p.pollers, roomCode)
			}
		}
	}
	return cancel, nil
}

// ensureReconcilerLocked starts the replica poller for a room if it is not
// already running. Caller holds p.mu.
func (p *Peer) ensureReconcilerLocked(code string) {
	if _, ok := p.pollers[code]; ok {
		return
	}

	done := make(chan struct{})
	var once sync.Once
	p.pollers[code] = func() { once.Do(func() { close(done) }) }

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.opts.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.rootCtx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				p.reconcile(code)
			}
		}
	}()
}

// reconcile adopts the replica's copy when its serialization differs from
// what we last saw, and notifies subscribers. Equal serializations are a
// no-op so subscribers never hear about writes that changed nothing.
func (p *Peer) reconcile(code string) {
	state, err := p.store.Get(p.rootCtx, code)
	if err != nil {
		// Replica unreachable or room gone; try again next tick. Room
		// removal is surfaced through the operations themselves.
		return
	}
	raw, err := state.MarshalBinary()
	if err != nil {
		log.Printf("[Peer.reconcile] Room %s: bad replica state: %v", code, err)
		return
	}

	p.mu.Lock()
	if string(p.lastSeen[code]) == string(raw) {
		p.mu.Unlock()
		return
	}
	p.lastSeen[code] = raw
	subs := p.subscribersLocked(code)
	p.mu.Unlock()

	log.Printf("[Peer.reconcile] Room %s: adopted replica update", code)
	p.deliver(subs, state)
}

var _ Synchronizer = (*Peer)(nil)
