package gamesync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/deck"
	"github.com/scythe504/partydeck-backend/internal/game"
	"github.com/scythe504/partydeck-backend/internal/store"
	"github.com/scythe504/partydeck-backend/internal/store/memory"
)

// fakeClock lets the tests own presence and TTL time while the real clock
// keeps driving timers and tickers.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testOptions(clock *fakeClock) Options {
	return Options{
		Countdown:         40 * time.Millisecond,
		HeartbeatInterval: -1,
		PollInterval:      10 * time.Millisecond,
		SweepInterval:     -1,
		Now:               clock.Now,
	}
}

type syncFactory struct {
	name string
	make func(t *testing.T, opts Options) Synchronizer
}

// transports returns one factory per transport, all backed by the memory
// store, so every contract test runs against all three.
func transports() []syncFactory {
	newMemory := func(t *testing.T) *memory.Store {
		st := memory.New()
		t.Cleanup(st.Close)
		return st
	}
	return []syncFactory{
		{
			name: "poll",
			make: func(t *testing.T, opts Options) Synchronizer {
				s := NewPoll(newMemory(t), opts)
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
		{
			name: "push",
			make: func(t *testing.T, opts Options) Synchronizer {
				s := NewPush(newMemory(t), opts)
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
		{
			name: "peer",
			make: func(t *testing.T, opts Options) Synchronizer {
				s := NewPeer(newMemory(t), opts)
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}
}

func requirePlaying(t *testing.T, s Synchronizer, code string) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := s.Read(context.Background(), code)
		return err == nil && st.Status == internal.StatusPlaying
	}, 2*time.Second, 5*time.Millisecond, "room never reached playing")
}

func TestSynchronizer_Create(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			_, _, err := s.Create(ctx, "")
			assert.Equal(t, internal.ErrKindInvalidState, internal.KindOf(err))

			code, hostID, err := s.Create(ctx, "Ava")
			require.NoError(t, err)
			require.Len(t, code, internal.RoomCodeLength)
			for _, r := range code {
				assert.True(t, strings.ContainsRune(internal.RoomCodeAlphabet, r),
					"code %q uses character outside the alphabet", code)
			}

			st, err := s.Read(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, internal.StatusWaiting, st.Status)
			assert.Equal(t, "Ava", st.Host)
			require.NotNil(t, st.Player(hostID))
			assert.True(t, st.Player(hostID).IsHost)
			assert.True(t, st.Player(hostID).Connected)
			assert.Empty(t, st.Winner)
		})
	}
}

func TestSynchronizer_JoinAndCapacity(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			_, err := s.Join(ctx, "ZZZZZZ", "Ben")
			assert.Equal(t, internal.ErrKindNotFound, internal.KindOf(err))

			code, _, err := s.Create(ctx, "Ava")
			require.NoError(t, err)

			_, err = s.Join(ctx, code, "")
			assert.Equal(t, internal.ErrKindInvalidState, internal.KindOf(err))

			benID, err := s.Join(ctx, code, "Ben")
			require.NoError(t, err)

			st, err := s.Read(ctx, code)
			require.NoError(t, err)
			require.NotNil(t, st.Player(benID))
			assert.False(t, st.Player(benID).IsHost)
			assert.Equal(t, 2, st.PlayerCount())

			// Fill the remaining seats, then the next join must bounce.
			for i := st.PlayerCount(); i < internal.MaxPlayersPerRoom; i++ {
				_, err := s.Join(ctx, code, "Guest")
				require.NoError(t, err)
			}
			_, err = s.Join(ctx, code, "Late")
			assert.Equal(t, internal.ErrKindRoomFull, internal.KindOf(err))
		})
	}
}

func TestSynchronizer_StartAuthorization(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			assert.Equal(t, internal.ErrKindNotFound, internal.KindOf(s.Start(ctx, "ZZZZZZ", "nobody")))

			code, hostID, err := s.Create(ctx, "Ava")
			require.NoError(t, err)
			benID, err := s.Join(ctx, code, "Ben")
			require.NoError(t, err)

			assert.Equal(t, internal.ErrKindUnauthorized, internal.KindOf(s.Start(ctx, code, benID)))

			require.NoError(t, s.Start(ctx, code, hostID))

			// Once out of waiting, another start is rejected and joins are
			// closed for good.
			assert.Equal(t, internal.ErrKindInvalidState, internal.KindOf(s.Start(ctx, code, hostID)))
			_, err = s.Join(ctx, code, "Late")
			assert.Equal(t, internal.ErrKindInvalidState, internal.KindOf(err))
		})
	}
}

func TestSynchronizer_CountdownAdvancesOnItsOwn(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			code, hostID, err := s.Create(ctx, "Ava")
			require.NoError(t, err)
			require.NoError(t, s.Start(ctx, code, hostID))

			st, err := s.Read(ctx, code)
			require.NoError(t, err)
			assert.NotEqual(t, internal.StatusWaiting, st.Status)
			assert.NotEqual(t, internal.StatusFinished, st.Status)

			// No further calls: the countdown expires by itself.
			requirePlaying(t, s, code)
		})
	}
}

func TestSynchronizer_PlayToWin(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			code, avaID, err := s.Create(ctx, "Ava")
			require.NoError(t, err)
			benID, err := s.Join(ctx, code, "Ben")
			require.NoError(t, err)
			require.NoError(t, s.Start(ctx, code, avaID))
			requirePlaying(t, s, code)

			st, err := s.Read(ctx, code)
			require.NoError(t, err)
			cards := deck.Generate(st.Seed)
			require.Len(t, cards, deck.Size())

			// Ben makes some progress, Ava runs the whole deck. Left and
			// right swipes advance the cursor alike.
			for i := 0; i < 3; i++ {
				require.NoError(t, s.Act(ctx, code, benID, game.ActionSwipeLeft))
			}
			for i := 0; i < deck.Size()-1; i++ {
				action := game.ActionSwipeRight
				if i%2 == 1 {
					action = game.ActionSwipeLeft
				}
				require.NoError(t, s.Act(ctx, code, avaID, action))
			}

			st, err = s.Read(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, internal.StatusPlaying, st.Status)
			assert.Empty(t, st.Winner)
			assert.Equal(t, deck.Size()-1, st.Player(avaID).CardsCompleted)

			require.NoError(t, s.Act(ctx, code, avaID, game.ActionSwipeRight))

			st, err = s.Read(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, internal.StatusFinished, st.Status)
			assert.Equal(t, avaID, st.Winner)
			assert.Equal(t, deck.Size(), st.Player(avaID).CardsCompleted)

			// The finished room accepts late swipes silently and the winner
			// never changes.
			require.NoError(t, s.Act(ctx, code, benID, game.ActionSwipeRight))
			st, err = s.Read(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, avaID, st.Winner)
			assert.Equal(t, 3, st.Player(benID).CardsCompleted)
		})
	}
}

func TestSynchronizer_ActValidation(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			err := s.Act(ctx, "ZZZZZZ", "nobody", game.ActionSwipeRight)
			assert.Equal(t, internal.ErrKindNotFound, internal.KindOf(err))

			code, hostID, err := s.Create(ctx, "Ava")
			require.NoError(t, err)

			err = s.Act(ctx, code, hostID, game.ActionSwipeRight)
			assert.Equal(t, internal.ErrKindInvalidState, internal.KindOf(err), "acting while waiting")

			require.NoError(t, s.Start(ctx, code, hostID))
			requirePlaying(t, s, code)

			err = s.Act(ctx, code, hostID, game.Action("shake"))
			assert.Equal(t, internal.ErrKindInvalidState, internal.KindOf(err), "unknown action")

			err = s.Act(ctx, code, "ghost", game.ActionSwipeRight)
			assert.Equal(t, internal.ErrKindNotFound, internal.KindOf(err), "unknown player")
		})
	}
}

func TestSynchronizer_Leave(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			// Leaving a room that does not exist is not an error.
			require.NoError(t, s.Leave(ctx, "ZZZZZZ", "nobody"))

			code, hostID, err := s.Create(ctx, "Ava")
			require.NoError(t, err)
			benID, err := s.Join(ctx, code, "Ben")
			require.NoError(t, err)

			require.NoError(t, s.Leave(ctx, code, benID))
			st, err := s.Read(ctx, code)
			require.NoError(t, err)
			assert.Equal(t, 1, st.PlayerCount())
			assert.Nil(t, st.Player(benID))

			require.NoError(t, s.Leave(ctx, code, benID), "leave is idempotent")

			// Last player out destroys the room.
			require.NoError(t, s.Leave(ctx, code, hostID))
			_, err = s.Read(ctx, code)
			assert.Equal(t, internal.ErrKindNotFound, internal.KindOf(err))
		})
	}
}

func TestSynchronizer_SubscribeDeliversChanges(t *testing.T) {
	for _, tr := range transports() {
		t.Run(tr.name, func(t *testing.T) {
			ctx := context.Background()
			s := tr.make(t, testOptions(newFakeClock()))

			code, _, err := s.Create(ctx, "Ava")
			require.NoError(t, err)

			var mu sync.Mutex
			var snapshots []*internal.GameState
			cancel, err := s.Subscribe(code, func(st *internal.GameState) {
				mu.Lock()
				snapshots = append(snapshots, st)
				mu.Unlock()
			})
			require.NoError(t, err)
			defer cancel()

			benID, err := s.Join(ctx, code, "Ben")
			require.NoError(t, err)

			require.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				for _, st := range snapshots {
					if st.Player(benID) != nil {
						return st.Player(benID).Connected
					}
				}
				return false
			}, 2*time.Second, 5*time.Millisecond, "join never reached the subscriber")
		})
	}
}

// Reads prune the hard-absent and only flag the soft-absent, so the pruning
// behavior is exercised with a controlled clock on a single transport.
func TestRead_PrunesAbsentPlayers(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	st := memory.New()
	t.Cleanup(st.Close)
	s := NewPoll(st, testOptions(clock))
	t.Cleanup(func() { _ = s.Close() })

	code, avaID, err := s.Create(ctx, "Ava")
	require.NoError(t, err)
	benID, err := s.Join(ctx, code, "Ben")
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx, code, avaID))
	requirePlaying(t, s, code)

	// Ava keeps playing; Ben goes quiet.
	clock.Advance(15 * time.Second)
	require.NoError(t, s.Act(ctx, code, avaID, game.ActionSwipeRight))

	state, err := s.Read(ctx, code)
	require.NoError(t, err)
	assert.True(t, state.Player(avaID).Connected)
	assert.False(t, state.Player(benID).Connected, "soft-absent player still listed, but disconnected")
	assert.Equal(t, 2, state.PlayerCount())

	// Past the hard threshold Ben is removed outright.
	clock.Advance(16 * time.Second)
	state, err = s.Read(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, state.Player(benID))
	assert.Equal(t, 1, state.PlayerCount())
	require.NotNil(t, state.Player(avaID))

	// And once everyone is hard-absent the room itself goes away.
	clock.Advance(31 * time.Second)
	_, err = s.Read(ctx, code)
	assert.Equal(t, internal.ErrKindNotFound, internal.KindOf(err))
}

func TestHeartbeat_KeepsLocalPlayersFresh(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	t.Cleanup(st.Close)
	s := NewPoll(st, Options{
		HeartbeatInterval: 10 * time.Millisecond,
		PollInterval:      10 * time.Millisecond,
		SweepInterval:     -1,
	})
	t.Cleanup(func() { _ = s.Close() })

	code, hostID, err := s.Create(ctx, "Ava")
	require.NoError(t, err)

	state, err := s.Read(ctx, code)
	require.NoError(t, err)
	initial := state.Player(hostID).LastSeen

	require.Eventually(t, func() bool {
		state, err := s.Read(ctx, code)
		return err == nil && state.Player(hostID).LastSeen > initial
	}, 2*time.Second, 5*time.Millisecond, "heartbeat never refreshed last-seen")
}

func TestSweep_DiscardsIdleRooms(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	st := memory.New()
	t.Cleanup(st.Close)
	s := NewPoll(st, Options{
		HeartbeatInterval: -1,
		PollInterval:      10 * time.Millisecond,
		SweepInterval:     5 * time.Millisecond,
		Now:               clock.Now,
	})
	t.Cleanup(func() { _ = s.Close() })

	code, _, err := s.Create(ctx, "Ava")
	require.NoError(t, err)

	// Well within the TTL the room survives sweeps.
	time.Sleep(25 * time.Millisecond)
	_, err = st.Get(ctx, code)
	require.NoError(t, err)

	clock.Advance(internal.RoomTTL + time.Hour)
	require.Eventually(t, func() bool {
		_, err := st.Get(ctx, code)
		return errors.Is(err, store.ErrNotFound)
	}, 2*time.Second, 5*time.Millisecond, "idle room never swept")
}
