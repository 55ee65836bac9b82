// Package redis is the realtime store: room aggregates as JSON values with
// a server-side TTL, plus a pub/sub channel per room so Watch delivers
// committed writes to every subscribed process.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/store"
)

const (
	keyPrefix     = "partydeck:room:"
	channelPrefix = "partydeck:events:"
)

type Store struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	log.Printf("[redis.New] Connected to %s", addr)
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, code string) (*internal.GameState, error) {
	raw, err := s.client.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read room %s: %w", code, err)
	}

	var state internal.GameState
	if err := state.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", code, err)
	}
	return &state, nil
}

// Put stores the aggregate with the room TTL and publishes it to the
// room's channel so watchers on other processes see the change.
func (s *Store) Put(ctx context.Context, code string, state *internal.GameState) error {
	raw, err := state.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode room %s: %w", code, err)
	}
	if err := s.client.Set(ctx, keyPrefix+code, raw, internal.RoomTTL).Err(); err != nil {
		return fmt.Errorf("failed to write room %s: %w", code, err)
	}
	if err := s.client.Publish(ctx, channelPrefix+code, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish room %s: %w", code, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, keyPrefix+code).Err(); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", code, err)
	}
	return nil
}

func (s *Store) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return codes, nil
}

// Watch subscribes to the room's channel. Messages that fail to decode are
// dropped; the next committed write resynchronizes the watcher.
func (s *Store) Watch(code string, fn func(*internal.GameState)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := s.client.Subscribe(ctx, channelPrefix+code)

	// Force the subscription to be established before returning, so a
	// write issued right after Watch is not missed.
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", code, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var state internal.GameState
			if err := state.UnmarshalBinary([]byte(msg.Payload)); err != nil {
				log.Printf("[redis.Watch] Room %s: dropping undecodable update: %v", code, err)
				continue
			}
			fn(&state)
		}
	}()

	stop := func() {
		cancel()
		if err := sub.Close(); err != nil {
			log.Printf("[redis.Watch] Room %s: error closing subscription: %v", code, err)
		}
	}
	return stop, nil
}
