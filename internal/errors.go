package internal

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes the expected, recoverable failures of room
// operations. A rejected action is an outcome the caller reacts to, never
// a fault that tears the room down.
type ErrorKind string

const (
	// ErrKindNotFound indicates the room or player does not exist.
	ErrKindNotFound ErrorKind = "NOT_FOUND"

	// ErrKindInvalidState indicates the operation is not valid for the
	// room's current lifecycle phase.
	ErrKindInvalidState ErrorKind = "INVALID_STATE"

	// ErrKindUnauthorized indicates a non-host attempted a host-only
	// action.
	ErrKindUnauthorized ErrorKind = "UNAUTHORIZED"

	// ErrKindRoomFull indicates the room is at capacity.
	ErrKindRoomFull ErrorKind = "ROOM_FULL"

	// ErrKindConflict indicates a transient write conflict in the peer
	// backend.
	ErrKindConflict ErrorKind = "CONFLICT"
)

// GameError carries a machine-readable kind plus the short, stable message
// shown to users. Raw transport errors never reach callers through it.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the error kind, unwrapping as needed. Returns "" for
// non-game errors.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func ErrRoomNotFound() *GameError {
	return &GameError{Kind: ErrKindNotFound, Message: "Room not found"}
}

func ErrPlayerNotFound() *GameError {
	return &GameError{Kind: ErrKindNotFound, Message: "Player not found"}
}

func ErrAlreadyStarted() *GameError {
	return &GameError{Kind: ErrKindInvalidState, Message: "Game already started"}
}

func ErrInvalidState(msg string) *GameError {
	return &GameError{Kind: ErrKindInvalidState, Message: msg}
}

func ErrNotHost() *GameError {
	return &GameError{Kind: ErrKindUnauthorized, Message: "Only the host can start the game"}
}

func ErrRoomFull() *GameError {
	return &GameError{Kind: ErrKindRoomFull, Message: "Room is full"}
}

func ErrWriteConflict() *GameError {
	return &GameError{Kind: ErrKindConflict, Message: "Room was updated concurrently, please retry"}
}
