// Package deck derives the shared card sequence every participant plays
// through. The deck is never persisted or transmitted: each reader rebuilds
// it from the room seed, so the permutation must be reproducible bit-for-bit
// across independent processes. That rules out math/rand (its stream is not
// part of any cross-implementation contract) in favor of a self-contained
// sine-based generator.
package deck

import "math"

// CardType is one entry of the closed card catalogue.
type CardType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

// Catalogue is the fixed set of card types. Order matters: the deck is
// assembled in catalogue order before shuffling.
var Catalogue = []CardType{
	{ID: "high-five", Name: "High Five", Emoji: "🙏", Description: `Find someone else with a "High Five" card and give them a high five!`},
	{ID: "dab-me", Name: "Dab Me", Emoji: "💃", Description: `Find someone with a "Dab Me" card and do a synchronized dab!`},
	{ID: "swap-places", Name: "Swap Places", Emoji: "🔄", Description: "Find your match and physically swap places with them!"},
	{ID: "kick-it", Name: "Kick It", Emoji: "🦵", Description: "Find your match and do a synchronized leg kick!"},
	{ID: "awkward-turtle", Name: "Awkward Turtle", Emoji: "🐢", Description: "Find your match and make the awkward turtle gesture together!"},
}

// Multiplicity is how many copies of each card type the deck contains.
const Multiplicity = 5

// Size returns the completion threshold: a player finishing Size cards
// wins. A threshold of zero means "already complete".
func Size() int {
	return len(Catalogue) * Multiplicity
}

// Generate returns the ordered card-type IDs for the given seed. Two calls
// with the same seed yield identical slices on any machine.
func Generate(seed int64) []string {
	return generate(Catalogue, Multiplicity, seed)
}

// ByID resolves a card-type ID back to its catalogue entry.
func ByID(id string) (CardType, bool) {
	for _, ct := range Catalogue {
		if ct.ID == id {
			return ct, true
		}
	}
	return CardType{}, false
}

func generate(catalogue []CardType, multiplicity int, seed int64) []string {
	out := make([]string, 0, len(catalogue)*multiplicity)
	for _, ct := range catalogue {
		for i := 0; i < multiplicity; i++ {
			out = append(out, ct.ID)
		}
	}

	// In-place Fisher-Yates driven entirely by the seed.
	rng := newSeededRand(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.next() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// seededRand is a sine-based hash generator. Not cryptographically strong,
// and does not need to be; it only has to produce the same stream for the
// same seed everywhere.
type seededRand struct {
	x float64
}

func newSeededRand(seed int64) *seededRand {
	return &seededRand{x: math.Sin(float64(seed)) * 10000}
}

// next returns a value in [0, 1).
func (r *seededRand) next() float64 {
	r.x = math.Sin(r.x) * 10000
	return r.x - math.Floor(r.x)
}
