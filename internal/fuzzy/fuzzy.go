// Package fuzzy implements close-match scoring for request paths. It backs
// the "did you mean" hint on JSON 404 responses: the failing path is compared
// against every registered route pattern and near misses are suggested back
// to the client.
//
// Matching is case-insensitive via Unicode case folding, so "/fOo" is a
// near-perfect match for "/foo".
package fuzzy

import (
	"sort"

	"golang.org/x/text/cases"
)

// DefaultCutoff is the minimum similarity ratio for a candidate to count as
// a close match.
const DefaultCutoff = 0.6

var folder = cases.Fold()

// Ratio returns a similarity measure for a and b in [0, 1], computed as
// 2*M/T where M is the number of matched characters across all matching
// blocks and T the total length of both strings. Comparison is done on
// case-folded text.
func Ratio(a, b string) float64 {
	fa := []rune(folder.String(a))
	fb := []rune(folder.String(b))
	if len(fa)+len(fb) == 0 {
		return 1
	}
	m := matchedRunes(fa, fb)
	return 2 * float64(m) / float64(len(fa)+len(fb))
}

// CloseMatches returns up to n candidates whose similarity to target is at
// least cutoff, best matches first. A cutoff <= 0 uses DefaultCutoff.
func CloseMatches(target string, candidates []string, n int, cutoff float64) []string {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	type scored struct {
		s     string
		ratio float64
	}
	var hits []scored
	for _, c := range candidates {
		if r := Ratio(target, c); r >= cutoff {
			hits = append(hits, scored{c, r})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].ratio > hits[j].ratio })
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.s
	}
	return out
}

// matchedRunes sums the lengths of the matching blocks of a and b: the
// longest common contiguous run is found, then the regions to its left and
// right are matched recursively. This mirrors the classic sequence-matcher
// ratio rather than plain edit distance, which weighs transposed or shifted
// segments less harshly.
func matchedRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchedRunes(a[:ai], b[:bi])
	total += matchedRunes(a[ai+size:], b[bi+size:])
	return total
}

// longestMatch finds the longest contiguous run common to a and b, returning
// its start offsets and length. Earlier runs win ties.
func longestMatch(a, b []rune) (ai, bi, size int) {
	// lengths[j] is the length of the common run ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			tmp := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prevDiag + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prevDiag = tmp
		}
	}
	return ai, bi, size
}
