package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

type StateUpdateData struct {
	RoomCode string     `json:"room_code"`
	State    *GameState `json:"state"`
}

type RoomClosedData struct {
	RoomCode string `json:"room_code"`
	Reason   string `json:"reason"`
}

type JoinResultData struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}
