package gamesync

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/deck"
	"github.com/scythe504/partydeck-backend/internal/game"
	"github.com/scythe504/partydeck-backend/internal/store"
	"github.com/scythe504/partydeck-backend/internal/utils"
)

const createRetries = 5

// core implements the mutating half of the contract over any store. Each
// room is the unit of isolation: a per-room mutex serializes this
// process's read-modify-write cycles so invariants like "finish exactly
// once" are checked and committed as one step. Transports embed core and
// add their own Subscribe.
type core struct {
	store store.Store
	opts  Options

	mu         sync.Mutex
	locks      map[string]*sync.Mutex
	countdowns map[string]context.CancelFunc
	heartbeats map[string]context.CancelFunc // roomCode + "/" + playerID

	// onCommit runs after every successful Put, outside the room lock.
	// The peer transport uses it to refresh its local copy and notify.
	onCommit func(code string, state *internal.GameState)

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

func newCore(s store.Store, opts Options) *core {
	ctx, cancel := context.WithCancel(context.Background())
	c := &core{
		store:      s,
		opts:       opts.withDefaults(),
		locks:      make(map[string]*sync.Mutex),
		countdowns: make(map[string]context.CancelFunc),
		heartbeats: make(map[string]context.CancelFunc),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
	if c.opts.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}
	return c
}

func (c *core) now() int64 {
	return c.opts.Now().UnixMilli()
}

func (c *core) roomLock(code string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[code]
	if !ok {
		l = &sync.Mutex{}
		c.locks[code] = l
	}
	return l
}

// mutate runs one atomic read-modify-write against a room. fn sees the
// current aggregate and either mutates it or rejects with a GameError;
// rejected mutations are never written back.
func (c *core) mutate(ctx context.Context, code string, fn func(*internal.GameState) error) (*internal.GameState, error) {
	l := c.roomLock(code)
	l.Lock()

	state, err := c.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		l.Unlock()
		return nil, internal.ErrRoomNotFound()
	}
	if err != nil {
		l.Unlock()
		return nil, err
	}
	if err := fn(state); err != nil {
		l.Unlock()
		return nil, err
	}
	if err := c.store.Put(ctx, code, state); err != nil {
		l.Unlock()
		return nil, err
	}
	l.Unlock()

	c.commit(code, state)
	return state, nil
}

// commit runs the post-write hook. Never call it with the room lock held:
// the hook may invoke subscriber callbacks that re-enter the engine.
func (c *core) commit(code string, state *internal.GameState) {
	if c.onCommit != nil {
		c.onCommit(code, state.Clone())
	}
}

func (c *core) Create(ctx context.Context, hostName string) (string, string, error) {
	if hostName == "" {
		return "", "", internal.ErrInvalidState("Host name is required")
	}

	now := c.now()
	playerID := utils.GeneratePlayerID()

	var code string
	for attempt := 0; ; attempt++ {
		code = utils.GenerateRoomCode()
		if _, err := c.store.Get(ctx, code); errors.Is(err, store.ErrNotFound) {
			break
		} else if err != nil {
			return "", "", err
		}
		if attempt >= createRetries {
			return "", "", internal.ErrWriteConflict()
		}
	}

	// The seed is fixed here, once, for the life of the room; every
	// participant derives the identical deck from it.
	state := internal.NewGameState(code, playerID, hostName, now, now)

	l := c.roomLock(code)
	l.Lock()
	err := c.store.Put(ctx, code, state)
	l.Unlock()
	if err != nil {
		return "", "", err
	}
	c.commit(code, state)

	log.Printf("[Create] Room %s created by %s (%s), seed=%d", code, playerID, hostName, state.Seed)
	c.startHeartbeat(code, playerID)
	return code, playerID, nil
}

func (c *core) Join(ctx context.Context, roomCode, playerName string) (string, error) {
	if playerName == "" {
		return "", internal.ErrInvalidState("Player name is required")
	}

	playerID := utils.GeneratePlayerID()
	_, err := c.mutate(ctx, roomCode, func(state *internal.GameState) error {
		return game.Join(state, internal.NewPlayer(playerID, playerName, false, c.now()), c.now())
	})
	if err != nil {
		return "", err
	}

	c.startHeartbeat(roomCode, playerID)
	return playerID, nil
}

func (c *core) Read(ctx context.Context, roomCode string) (*internal.GameState, error) {
	l := c.roomLock(roomCode)
	l.Lock()

	state, err := c.store.Get(ctx, roomCode)
	if errors.Is(err, store.ErrNotFound) {
		l.Unlock()
		return nil, internal.ErrRoomNotFound()
	}
	if err != nil {
		l.Unlock()
		return nil, err
	}

	now := c.now()
	pruned := false
	if removed := game.Prune(state, now); len(removed) > 0 {
		if state.PlayerCount() == 0 {
			c.destroyRoomLocked(ctx, roomCode)
			l.Unlock()
			return nil, internal.ErrRoomNotFound()
		}
		if err := c.store.Put(ctx, roomCode, state); err != nil {
			// Pruning is best-effort on reads; the next read retries.
			log.Printf("[Read] Room %s: failed to persist prune: %v", roomCode, err)
		} else {
			pruned = true
		}
	}
	l.Unlock()

	if pruned {
		c.commit(roomCode, state)
	}

	// The connected flag is derived for the reader, never persisted, so
	// the stored serialization stays stable between writes.
	game.Annotate(state, now)
	return state, nil
}

func (c *core) Start(ctx context.Context, roomCode, playerID string) error {
	_, err := c.mutate(ctx, roomCode, func(state *internal.GameState) error {
		return game.StartByHost(state, playerID, c.now())
	})
	if err != nil {
		return err
	}

	log.Printf("[Start] Room %s: countdown started by %s", roomCode, playerID)
	c.scheduleCountdown(roomCode)
	return nil
}

func (c *core) Act(ctx context.Context, roomCode, playerID string, action game.Action) error {
	_, err := c.mutate(ctx, roomCode, func(state *internal.GameState) error {
		return game.Advance(state, playerID, action, deck.Size(), c.now())
	})
	return err
}

func (c *core) Leave(ctx context.Context, roomCode, playerID string) error {
	c.stopHeartbeat(roomCode, playerID)

	l := c.roomLock(roomCode)
	l.Lock()

	state, err := c.store.Get(ctx, roomCode)
	if errors.Is(err, store.ErrNotFound) {
		l.Unlock()
		return nil
	}
	if err != nil {
		l.Unlock()
		return err
	}

	game.Leave(state, playerID, c.now())
	if state.PlayerCount() == 0 {
		log.Printf("[Leave] Room %s is empty, cleaning up", roomCode)
		c.destroyRoomLocked(ctx, roomCode)
		l.Unlock()
		return nil
	}
	if err := c.store.Put(ctx, roomCode, state); err != nil {
		l.Unlock()
		return err
	}
	l.Unlock()

	c.commit(roomCode, state)
	return nil
}

// destroyRoomLocked removes the room and cancels its timers. Caller holds
// the room lock.
func (c *core) destroyRoomLocked(ctx context.Context, code string) {
	if err := c.store.Delete(ctx, code); err != nil {
		log.Printf("[destroyRoom] Room %s: delete failed: %v", code, err)
	}
	c.mu.Lock()
	if cancel, ok := c.countdowns[code]; ok {
		cancel()
		delete(c.countdowns, code)
	}
	delete(c.locks, code)
	c.mu.Unlock()
}

// startHeartbeat keeps a locally-attached player's last-seen fresh on a
// fixed interval, independent of gameplay activity. Transient store errors
// are swallowed and retried on the next tick; the goroutine exits once the
// room or player is gone.
func (c *core) startHeartbeat(code, playerID string) {
	if c.opts.HeartbeatInterval < 0 {
		return
	}

	ctx, cancel := context.WithCancel(c.rootCtx)
	key := code + "/" + playerID

	c.mu.Lock()
	if old, ok := c.heartbeats[key]; ok {
		old()
	}
	c.heartbeats[key] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.opts.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, err := c.mutate(ctx, code, func(state *internal.GameState) error {
					return game.Touch(state, playerID, c.now())
				})
				if internal.KindOf(err) == internal.ErrKindNotFound {
					log.Printf("[heartbeat] %s: player or room gone, stopping", key)
					c.stopHeartbeat(code, playerID)
					return
				}
				if err != nil && ctx.Err() == nil {
					log.Printf("[heartbeat] %s: transient error, retrying next tick: %v", key, err)
				}
			}
		}
	}()
}

func (c *core) stopHeartbeat(code, playerID string) {
	key := code + "/" + playerID
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.heartbeats[key]; ok {
		cancel()
		delete(c.heartbeats, key)
	}
}

// sweepLoop discards rooms idle beyond the TTL. A failed sweep of one room
// never aborts the loop; the room gets another chance next interval.
func (c *core) sweepLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.rootCtx.Done():
			return
		case <-ticker.C:
			codes, err := c.store.Codes(c.rootCtx)
			if err != nil {
				log.Printf("[sweep] Failed to list rooms: %v", err)
				continue
			}
			cutoff := c.now() - c.opts.RoomTTL.Milliseconds()
			for _, code := range codes {
				state, err := c.store.Get(c.rootCtx, code)
				if err != nil {
					continue
				}
				if state.LastActivity < cutoff {
					log.Printf("[sweep] Room %s idle past TTL, discarding", code)
					l := c.roomLock(code)
					l.Lock()
					c.destroyRoomLocked(c.rootCtx, code)
					l.Unlock()
				}
			}
		}
	}
}

func (c *core) Close() error {
	c.rootCancel()
	c.wg.Wait()
	return nil
}
