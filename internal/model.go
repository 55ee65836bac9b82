package internal

import "time"

const (
	// CountdownDuration is how long a room sits in countdown before it
	// autonomously advances to playing.
	CountdownDuration = 3 * time.Second

	// HeartbeatInterval is how often a connected participant refreshes its
	// last-seen timestamp, independent of gameplay activity.
	HeartbeatInterval = 5 * time.Second

	// SoftAbsenceThreshold is the silence after which a player shows as
	// disconnected in reads.
	SoftAbsenceThreshold = 10 * time.Second

	// HardAbsenceThreshold is the silence after which a player is removed
	// from the room entirely.
	HardAbsenceThreshold = 30 * time.Second

	// RoomTTL is how long an idle room survives before the sweeper discards
	// it.
	RoomTTL = 24 * time.Hour

	MaxPlayersPerRoom = 8
	RoomCodeLength    = 6
)

// RoomCodeAlphabet excludes visually confusable glyphs (I, O, 0, 1).
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusCountdown RoomStatus = "countdown"
	StatusPlaying   RoomStatus = "playing"
	StatusFinished  RoomStatus = "finished"
)

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
