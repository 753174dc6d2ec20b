package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tonisark/ActressManager/config"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Jane   Doe ", "Jane Doe"},
		{"Jane D.", "Jane D"},
		{"O'Neil-Smith", "ONeilSmith"},
		{"Zoë\tKrävitz", "Zoë Krävitz"},
		{"", ""},
		{"...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "Jane Doe", "Jane Doe", 100},
		{"abbreviated surname", "Jane Doe", "Jane D.", 86},
		{"different person", "Jane Doe", "John Smith", 33},
		{"lowercased", "jane doe", "Jane Doe", 75},
		{"one letter case", "Jane doe", "Jane Doe", 88},
		{"three letters case", "MARIa Gonzales", "Maria Gonzales", 79},
		{"two letters case", "LENa Smith", "Lena Smith", 80},
		{"accent counts as one rune", "Zoë", "Zoe", 67},
		{"punctuation only differs", "Jane Doe!", "Jane Doe", 100},
		{"both empty", "", "", 100},
		{"one empty", "", "Jane", 0},
		{"punctuation vs empty", "?!", "", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b))
			assert.Equal(t, tt.want, Score(tt.b, tt.a), "score must be symmetric")
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	assert.Equal(t, 100, Score("Jane Doe", "Jane Doe"))
	s := Score("Jane Doe", "Jane D.")
	assert.True(t, s >= 85 && s <= 99, "got %d", s)
	assert.Less(t, Score("Jane Doe", "John Smith"), 50)
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy

	assert.True(t, p.IsExact(100))
	assert.False(t, p.IsExact(99))

	assert.True(t, p.IsWarning(86))
	assert.False(t, p.IsWarning(85))

	assert.True(t, p.IsMergeCandidate(81))
	assert.False(t, p.IsMergeCandidate(80))

	assert.True(t, p.AllowsImportUpdate(80))
	assert.False(t, p.AllowsImportUpdate(79))
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.Config{SimilarityExact: 95, SimilarityWarn: 70, SimilarityMerge: 60, SimilarityImportUpdate: 50}
	assert.Equal(t, Policy{Exact: 95, Warn: 70, MergeCandidate: 60, ImportUpdate: 50}, PolicyFromConfig(cfg))
}
