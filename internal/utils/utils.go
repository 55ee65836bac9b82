package utils

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/scythe504/partydeck-backend/internal"
)

// GenerateRoomCode returns a short shareable code. Codes only need to be
// unguessable enough to not collide in practice; the synchronizer retries
// on the rare collision.
func GenerateRoomCode() string {
	code := make([]byte, internal.RoomCodeLength)
	for i := range code {
		code[i] = internal.RoomCodeAlphabet[rand.Intn(len(internal.RoomCodeAlphabet))]
	}
	return string(code)
}

// GeneratePlayerID returns a locally-generated opaque player identity.
func GeneratePlayerID() string {
	return uuid.NewString()
}
