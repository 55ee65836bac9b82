package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/partydeck-backend/internal"
)

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := GenerateRoomCode()
		require.Len(t, code, internal.RoomCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(internal.RoomCodeAlphabet, c),
				"code %q contains %q outside the alphabet", code, c)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190, "codes should essentially never collide")
}

func TestGeneratePlayerID_Unique(t *testing.T) {
	assert.NotEqual(t, GeneratePlayerID(), GeneratePlayerID())
}
