package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases", "Fresh Garlic", "garlic"},
		{"strips size qualifier", "large onion", "onion"},
		{"strips prep qualifier", "chopped cilantro", "cilantro"},
		{"strips leaf suffix", "basil leaves", "basil"},
		{"strips clove suffix", "garlic cloves", "garlic"},
		{"keeps clove as first token", "clove", "clove"},
		{"strips several qualifiers", "Fresh Chopped Garlic Cloves", "garlic"},
		{"collapses whitespace", "  black   pepper ", "black pepper"},
		{"all qualifiers keeps lowered name", "Fresh Frozen", "fresh frozen"},
		{"empty", "", ""},
		{"trims punctuation", "onion, diced", "onion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := "Large Fresh Garlic Cloves, minced"
	first := Normalize(raw)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Normalize(raw))
	}
}

func TestContainsMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical after normalize", "Fresh Garlic", "garlic", true},
		{"suffix stripped both ways", "garlic cloves", "garlic", true},
		{"documented over-match", "black pepper", "pepper", true},
		{"bell pepper over-match", "bell pepper", "pepper", true},
		{"unrelated", "rice", "milk", false},
		{"empty never matches", "", "garlic", false},
		{"both empty never match", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsMatch(tt.a, tt.b))
			assert.Equal(t, tt.want, ContainsMatch(tt.b, tt.a), "matching must be symmetric")
		})
	}
}

func TestTokenSubsetMatch(t *testing.T) {
	assert.True(t, TokenSubsetMatch("black pepper", "pepper"))
	assert.True(t, TokenSubsetMatch("Fresh Garlic", "garlic cloves"))

	// substring leakage the containment rule allows
	assert.True(t, ContainsMatch("butter", "buttermilk"))
	assert.False(t, TokenSubsetMatch("butter", "buttermilk"))
}

func TestSameIngredientUsesContainment(t *testing.T) {
	assert.True(t, SameIngredient("garlic cloves", "garlic"))
	assert.True(t, SameIngredient("black pepper", "pepper"))
}
