package internal

// Player is one participant inside a room. All timestamps are unix
// milliseconds so the aggregate serializes identically across backends.
type Player struct {
	Id               string `json:"id"`
	Name             string `json:"name"`
	IsHost           bool   `json:"is_host"`
	CurrentCardIndex int    `json:"current_card_index"`
	CardsCompleted   int    `json:"cards_completed"`
	LastSeen         int64  `json:"last_seen"`

	// Connected is derived from LastSeen on read, never authoritative.
	Connected bool `json:"connected"`
}

func NewPlayer(id, name string, isHost bool, now int64) *Player {
	return &Player{
		Id:        id,
		Name:      name,
		IsHost:    isHost,
		LastSeen:  now,
		Connected: true,
	}
}

func (p *Player) Clone() *Player {
	cp := *p
	return &cp
}
