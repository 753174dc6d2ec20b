// Package similarity scores how alike two profile names are and decides what
// a score means for duplicate detection, merging and import updates.
package similarity

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/Tonisark/ActressManager/config"
)

// Normalize trims s, drops everything that is not a letter, digit or space
// and collapses runs of whitespace. Case is kept.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Score returns the indel similarity of a and b in 0..100 after
// normalization. Two empty names score 100, one empty name scores 0.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	total := utf8.RuneCountInString(na) + utf8.RuneCountInString(nb)
	if total == 0 {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	// indel distance is total-2*lcs, so the ratio reduces to 2*lcs/total
	return int(math.Round(100 * float64(2*edlib.LCS(na, nb)) / float64(total)))
}

// Policy holds the score thresholds.
type Policy struct {
	Exact          int
	Warn           int
	MergeCandidate int
	ImportUpdate   int
}

// DefaultPolicy is 100 / 85 / 80 / 80.
var DefaultPolicy = Policy{Exact: 100, Warn: 85, MergeCandidate: 80, ImportUpdate: 80}

// PolicyFromConfig reads the SIMILARITY_* settings.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		Exact:          cfg.SimilarityExact,
		Warn:           cfg.SimilarityWarn,
		MergeCandidate: cfg.SimilarityMerge,
		ImportUpdate:   cfg.SimilarityImportUpdate,
	}
}

// IsExact blocks an add.
func (p Policy) IsExact(score int) bool { return score >= p.Exact }

// IsWarning marks a near duplicate that is reported but not blocked.
func (p Policy) IsWarning(score int) bool { return score > p.Warn }

func (p Policy) IsMergeCandidate(score int) bool { return score > p.MergeCandidate }

// AllowsImportUpdate reports whether an update-mode import may overwrite the
// existing record found by a case-insensitive name lookup.
func (p Policy) AllowsImportUpdate(score int) bool { return score >= p.ImportUpdate }
