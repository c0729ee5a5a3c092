package dictionary

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// buildDeleteIndex maps every string reachable from a word by at most
// distance rune deletions back to the words that produce it.
func buildDeleteIndex(freqs map[string]uint64, distance int) map[string][]string {
	index := make(map[string][]string, len(freqs)*(distance+1))
	for word := range freqs {
		for del := range deletes(word, distance) {
			index[del] = append(index[del], word)
		}
	}
	return index
}

// deletes returns s and every string obtained by removing up to distance runes from it.
func deletes(s string, distance int) map[string]struct{} {
	out := map[string]struct{}{s: {}}
	frontier := []string{s}
	for level := 0; level < distance; level++ {
		var next []string
		for _, cur := range frontier {
			runes := []rune(cur)
			for i := range runes {
				del := string(runes[:i]) + string(runes[i+1:])
				if _, seen := out[del]; seen {
					continue
				}
				out[del] = struct{}{}
				next = append(next, del)
			}
		}
		frontier = next
	}
	return out
}

// Near calls fn for every dictionary word within maxDistance edits of s.
// Each word is reported once, in no particular order.
func (d *Dictionary) Near(s string, maxDistance int, fn func(word string, frequency uint64, distance int)) error {
	if maxDistance < 0 {
		return fmt.Errorf("negative edit distance %d", maxDistance)
	}
	if maxDistance == 0 {
		if f, ok := d.freqs[s]; ok {
			fn(s, f, 0)
		}
		return nil
	}
	if !d.frozen || maxDistance > d.editDistance {
		return fmt.Errorf("%w: requested %d, indexed %d", ErrDistance, maxDistance, d.editDistance)
	}

	seen := make(map[string]struct{})
	for del := range deletes(s, maxDistance) {
		for _, word := range d.deletes[del] {
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			dist := Distance(s, word)
			if dist > maxDistance {
				continue
			}
			fn(word, d.freqs[word], dist)
		}
	}
	return nil
}

// Distance is the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
