package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiceIdentityAndSymmetry(t *testing.T) {
	for _, s := range []string{"plomberie", "moreau elec", "ab"} {
		assert.Equal(t, 1.0, Dice(s, s))
	}

	pairs := [][2]string{
		{"dupont", "dupond"},
		{"electricite moreau", "moreau elec"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Dice(p[0], p[1]), Dice(p[1], p[0]), 1e-12)
	}
}

func TestDiceShortStrings(t *testing.T) {
	assert.Equal(t, 0.0, Dice("a", "ab"))
	assert.Equal(t, 0.0, Dice("", "ab"))
	assert.Equal(t, 1.0, Dice("a", "a"))
	assert.Equal(t, 0.0, Dice("abc", "xyz"))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"dupont", "dupont", 0},
		{"dupont", "dupond", 1},
		{"plomberie", "plombrie", 1},
		{"menuiserie", "menuseries", 2},
		{"chat", "chien", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	// One edit tolerated on short tokens.
	assert.Equal(t, 0.8, FuzzyTokenMatch("dupont", "dupond"))
	assert.Equal(t, 0.0, FuzzyTokenMatch("dupont", "dupintt"))
	// Unrelated short words stay apart.
	assert.Equal(t, 0.0, FuzzyTokenMatch("bar", "vin"))
	// Two edits tolerated on 7+ character tokens.
	assert.Equal(t, 0.8, FuzzyTokenMatch("menuiserie", "menuisserie"))
	assert.Equal(t, 0.8, FuzzyTokenMatch("charpentier", "charpantier"))
	assert.Equal(t, 0.0, FuzzyTokenMatch("", "dupont"))
}

func TestNameSimilarity(t *testing.T) {
	// Identical names.
	assert.Equal(t, 1.0, NameSimilarity("moreau elec", "moreau elec"))

	// Token order does not matter.
	assert.Equal(t, 1.0, NameSimilarity("elec moreau", "moreau elec"))

	// Partial overlap scores proportionally: {moreau} ∩, union size 3.
	got := NameSimilarity("moreau", "moreau elec batiment")
	assert.InDelta(t, 1.0/3.0, got, 1e-9)

	// Misspelled token pairs through the fuzzy path.
	got = NameSimilarity("dupond plomberie", "dupont plomberie")
	assert.InDelta(t, 1.8/3.0, got, 1e-9)

	// Containment fallback when nothing matches exactly or fuzzily.
	got = NameSimilarity("electromoreau", "moreau")
	assert.InDelta(t, 0.5/2.0, got, 1e-9)

	assert.Equal(t, 0.0, NameSimilarity("", "moreau"))
	assert.Equal(t, 0.0, NameSimilarity("dupont", "moreau"))
}
