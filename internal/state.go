package internal

import "encoding/json"

// GameState is the aggregate the synchronizer moves around: one room plus
// its player set. It is the unit of read, write and broadcast; every
// backend persists it as a single JSON value keyed by room code.
type GameState struct {
	RoomCode     string             `json:"room_code"`
	Host         string             `json:"host"`
	Status       RoomStatus         `json:"status"`
	Seed         int64              `json:"seed"`
	Winner       string             `json:"winner,omitempty"`
	CreatedAt    int64              `json:"created_at"`
	LastActivity int64              `json:"last_activity"`
	Players      map[string]*Player `json:"players"`
}

// NewGameState builds a fresh waiting room with the host as its only
// player. The seed is fixed here and never changes afterwards.
func NewGameState(code, hostID, hostName string, seed, now int64) *GameState {
	return &GameState{
		RoomCode:     code,
		Host:         hostName,
		Status:       StatusWaiting,
		Seed:         seed,
		CreatedAt:    now,
		LastActivity: now,
		Players: map[string]*Player{
			hostID: NewPlayer(hostID, hostName, true, now),
		},
	}
}

func (g *GameState) Player(id string) *Player {
	if g.Players == nil {
		return nil
	}
	return g.Players[id]
}

func (g *GameState) PlayerCount() int {
	return len(g.Players)
}

// Touch bumps the room's last-activity timestamp.
func (g *GameState) Touch(now int64) {
	g.LastActivity = now
}

// Clone deep-copies the aggregate so readers never share player pointers
// with the store.
func (g *GameState) Clone() *GameState {
	cp := *g
	cp.Players = make(map[string]*Player, len(g.Players))
	for id, p := range g.Players {
		cp.Players[id] = p.Clone()
	}
	return &cp
}

func (g *GameState) MarshalBinary() ([]byte, error) {
	return json.Marshal(g)
}

func (g *GameState) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, g)
}
