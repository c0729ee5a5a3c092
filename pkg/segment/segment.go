/*
Package segment finds the best decomposition of a string into dictionary words.

The search is a dynamic-programming sweep over the rune boundaries of the
input. best[i] holds the cheapest way to cover the first i runes; each boundary
is extended by the dictionary words that can start there. With an edit budget
of zero those words come straight from a prefix walk of the dictionary trie.
With a positive budget every bounded-length substring is resolved to its
closest dictionary word through the symmetric-delete index.

Candidates are ranked by total edit distance, then by number of parts (fewer
splits win), then by total frequency (higher wins). The search may return
parts that differ from the input when the budget allows edits; deciding
whether such a candidate is acceptable is the caller's job.
*/
package segment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// HardMaxEditDistance caps every configured edit budget.
const HardMaxEditDistance = 3

var (
	ErrInputTooLong = errors.New("input exceeds maximum token length")
	ErrEditDistance = errors.New("edit distance exceeds configured maximum")
	ErrTimeout      = errors.New("segmentation timed out")
)

// Lexicon is the dictionary capability the search needs.
type Lexicon interface {
	// VisitPrefixes calls fn for every word that is a prefix of s.
	VisitPrefixes(s string, fn func(word string, frequency uint64) error) error
	// Near calls fn for every word within maxDistance edits of s.
	Near(s string, maxDistance int, fn func(word string, frequency uint64, distance int)) error
	// MaxWordLength is the length in runes of the longest word.
	MaxWordLength() int
}

// Candidate is a decomposition of a string into dictionary words.
type Candidate struct {
	Parts     []string
	Distance  int
	Frequency uint64
}

// Joined returns the parts concatenated without separators.
func (c Candidate) Joined() string {
	return strings.Join(c.Parts, "")
}

// String returns the parts joined by single spaces.
func (c Candidate) String() string {
	return strings.Join(c.Parts, " ")
}

// Options bounds the search.
type Options struct {
	// MaxTokenLength is the longest input, in runes, that will be searched. Zero disables the limit.
	MaxTokenLength int
	// MaxEditDistance is the largest budget Segment accepts.
	MaxEditDistance int
	// CacheSize enables an LRU of results when positive.
	CacheSize int
}

type cacheKey struct {
	text     string
	distance int
}

type cacheEntry struct {
	candidate Candidate
	ok        bool
}

// Segmenter runs segmentation searches against a Lexicon.
// It is safe for concurrent use when the Lexicon is.
type Segmenter struct {
	lex   Lexicon
	opts  Options
	cache *lru.Cache[cacheKey, cacheEntry]
}

// New creates a Segmenter.
func New(lex Lexicon, opts Options) (*Segmenter, error) {
	if opts.MaxEditDistance < 0 || opts.MaxEditDistance > HardMaxEditDistance {
		return nil, fmt.Errorf("%w: %d (limit %d)", ErrEditDistance, opts.MaxEditDistance, HardMaxEditDistance)
	}
	s := &Segmenter{lex: lex, opts: opts}
	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, cacheEntry](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create segmentation cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Options returns the limits the segmenter was built with.
func (s *Segmenter) Options() Options {
	return s.opts
}

// CacheLen returns the number of cached results (0 if caching is disabled).
func (s *Segmenter) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// Segment returns the best decomposition of text into dictionary words where
// every part is within maxEditDistance edits of the substring it covers.
// ok is false when no decomposition covers the whole input.
func (s *Segmenter) Segment(ctx context.Context, text string, maxEditDistance int) (Candidate, bool, error) {
	if maxEditDistance < 0 || maxEditDistance > s.opts.MaxEditDistance {
		return Candidate{}, false, fmt.Errorf("%w: %d (limit %d)", ErrEditDistance, maxEditDistance, s.opts.MaxEditDistance)
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return Candidate{}, false, nil
	}
	if s.opts.MaxTokenLength > 0 && n > s.opts.MaxTokenLength {
		return Candidate{}, false, fmt.Errorf("%w: %d runes (limit %d)", ErrInputTooLong, n, s.opts.MaxTokenLength)
	}

	key := cacheKey{text: text, distance: maxEditDistance}
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			return hit.candidate.clone(), hit.ok, nil
		}
	}

	cand, ok, err := s.search(ctx, text, maxEditDistance)
	if err != nil {
		return Candidate{}, false, err
	}
	if s.cache != nil {
		s.cache.Add(key, cacheEntry{candidate: cand, ok: ok})
	}
	return cand.clone(), ok, nil
}

func (c Candidate) clone() Candidate {
	c.Parts = append([]string(nil), c.Parts...)
	return c
}

// cell is one DP entry: the best path covering text up to a boundary.
type cell struct {
	reached  bool
	distance int
	parts    int
	freq     uint64
	prev     int
	word     string
}

func (c cell) betterThan(o cell) bool {
	if !o.reached {
		return true
	}
	if c.distance != o.distance {
		return c.distance < o.distance
	}
	if c.parts != o.parts {
		return c.parts < o.parts
	}
	return c.freq > o.freq
}

func (s *Segmenter) search(ctx context.Context, text string, budget int) (Candidate, bool, error) {
	// bounds[k] is the byte offset of the k-th rune boundary; index is its inverse.
	bounds := make([]int, 0, len(text)+1)
	for off := range text {
		bounds = append(bounds, off)
	}
	bounds = append(bounds, len(text))
	n := len(bounds) - 1

	index := make([]int, len(text)+1)
	for i := range index {
		index[i] = -1
	}
	for k, off := range bounds {
		index[off] = k
	}

	best := make([]cell, n+1)
	best[0] = cell{reached: true, prev: -1}

	relax := func(from, to int, word string, dist int, freq uint64) {
		next := cell{
			reached:  true,
			distance: best[from].distance + dist,
			parts:    best[from].parts + 1,
			freq:     best[from].freq + freq,
			prev:     from,
			word:     word,
		}
		if next.betterThan(best[to]) {
			best[to] = next
		}
	}

	maxSpan := s.lex.MaxWordLength() + budget
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Candidate{}, false, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if !best[i].reached {
			continue
		}

		if budget == 0 {
			rest := text[bounds[i]:]
			err := s.lex.VisitPrefixes(rest, func(word string, freq uint64) error {
				if j := index[bounds[i]+len(word)]; j > i {
					relax(i, j, word, 0, freq)
				}
				return nil
			})
			if err != nil {
				return Candidate{}, false, err
			}
			continue
		}

		for j := i + 1; j <= n && j-i <= maxSpan; j++ {
			word, dist, freq, found, err := s.closest(text[bounds[i]:bounds[j]], budget)
			if err != nil {
				return Candidate{}, false, err
			}
			if found {
				relax(i, j, word, dist, freq)
			}
		}
	}

	if !best[n].reached {
		return Candidate{}, false, nil
	}

	parts := make([]string, best[n].parts)
	for k, at := len(parts)-1, n; at > 0; k, at = k-1, best[at].prev {
		parts[k] = best[at].word
	}
	cand := Candidate{Parts: parts, Distance: best[n].distance, Frequency: best[n].freq}
	log.Debugf("Segmented %q -> %q (distance %d)", text, cand.String(), cand.Distance)
	return cand, true, nil
}

// closest picks the nearest dictionary word to sub: lowest distance, then
// highest frequency, then lexicographic order.
func (s *Segmenter) closest(sub string, budget int) (string, int, uint64, bool, error) {
	var (
		bestWord string
		bestDist int
		bestFreq uint64
		found    bool
	)
	err := s.lex.Near(sub, budget, func(word string, freq uint64, dist int) {
		switch {
		case !found,
			dist < bestDist,
			dist == bestDist && freq > bestFreq,
			dist == bestDist && freq == bestFreq && word < bestWord:
			bestWord, bestDist, bestFreq, found = word, dist, freq, true
		}
	})
	return bestWord, bestDist, bestFreq, found, err
}
