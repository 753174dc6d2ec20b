package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFolderName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces become underscores", "Jane Doe", "Jane_Doe"},
		{"accents folded", "Zoë Saldaña", "Zoe_Saldana"},
		{"path separators", "../../etc/passwd", "etc_passwd"},
		{"punctuation dropped", "Jane D. (Model)!", "Jane_D._Model"},
		{"leading dots trimmed", "...hidden", "hidden"},
		{"empty", "", "unknown"},
		{"nothing usable", "李小龙", "unknown"},
		{"reserved device name", "con", "_con"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeFolderName(tt.in))
		})
	}
}

func TestIsSafeFolderName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Jane_Doe", true},
		{"Jane_D._Model", true},
		{"_CON", true},
		{"", false},
		{".", false},
		{"..", false},
		{"...", false},
		{"a/b", false},
		{`a\b`, false},
		{"a:b", false},
		{"what?*", false},
		{"x<y>|z", false},
		{`quote"d`, false},
		{"with space", false},
		{"Zoë", false},
		{"CON", false},
		{"con.txt", false},
		{"lpt1", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeFolderName(tt.in))
		})
	}
}

func TestSafeFolderNameIsAlwaysSafe(t *testing.T) {
	for _, in := range []string{"Jane Doe", "a:b", "CON", "what?*", "x<y>|z", `quote"d`, "../..", "Zoë Saldaña", "", "..."} {
		out := SafeFolderName(in)
		assert.True(t, IsSafeFolderName(out), "SafeFolderName(%q) = %q", in, out)
	}
}
