/*
Package dictionary holds the frequency dictionary used to resegment tokens.

A Dictionary maps word forms to occurrence counts. Words live in a Patricia trie
so that every dictionary word starting at a given position of a string can be
enumerated in one walk, and in a plain map used as the lookup set for exact,
case-sensitive membership tests.

The lifecycle has two phases. While mutable, entries can be added (from a
resource file or an augmentation pass over a corpus) by a single writer. Freeze
builds the symmetric-delete index used for near-match queries and ends the
mutable phase; a frozen Dictionary is safe for concurrent readers without
locking.
*/
package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

var (
	// ErrFrozen is returned when mutating a dictionary after Freeze.
	ErrFrozen = errors.New("dictionary is frozen")
	// ErrEmptyWord is returned when adding an empty word.
	ErrEmptyWord = errors.New("empty word")
	// ErrDistance is returned by Near when the requested distance exceeds the indexed one.
	ErrDistance = errors.New("edit distance not indexed")
)

// Entry is a single word with its frequency.
type Entry struct {
	Word      string `msgpack:"w"`
	Frequency uint64 `msgpack:"f"`
}

// Dictionary is a word frequency table backed by a Patricia trie.
type Dictionary struct {
	trie          *patricia.Trie
	freqs         map[string]uint64
	deletes       map[string][]string
	maxFrequency  uint64
	maxWordLength int
	editDistance  int
	frozen        bool
}

// Stats summarizes a dictionary.
type Stats struct {
	Words         int
	MaxFrequency  uint64
	MaxWordLength int
	EditDistance  int
	Frozen        bool
}

// New creates an empty, mutable dictionary.
func New() *Dictionary {
	return &Dictionary{
		trie:  patricia.NewTrie(),
		freqs: make(map[string]uint64),
	}
}

// FromEntries builds a mutable dictionary from entries, accumulating duplicates.
func FromEntries(entries []Entry) (*Dictionary, error) {
	d := New()
	for _, e := range entries {
		if err := d.Add(e.Word, e.Frequency); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add inserts word or increments its frequency.
func (d *Dictionary) Add(word string, frequency uint64) error {
	if d.frozen {
		return ErrFrozen
	}
	if word == "" {
		return ErrEmptyWord
	}
	total := d.freqs[word] + frequency
	d.freqs[word] = total
	d.trie.Set(patricia.Prefix(word), total)

	if total > d.maxFrequency {
		d.maxFrequency = total
	}
	if n := utf8.RuneCountInString(word); n > d.maxWordLength {
		d.maxWordLength = n
	}
	return nil
}

// Contains is an exact, case-sensitive membership test.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.freqs[word]
	return ok
}

// Frequency returns the frequency of word.
func (d *Dictionary) Frequency(word string) (uint64, bool) {
	f, ok := d.freqs[word]
	return f, ok
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	return len(d.freqs)
}

// MaxFrequency returns the highest frequency in the dictionary.
func (d *Dictionary) MaxFrequency() uint64 {
	return d.maxFrequency
}

// MaxWordLength returns the length in runes of the longest word.
func (d *Dictionary) MaxWordLength() int {
	return d.maxWordLength
}

// Frozen reports whether Freeze has been called.
func (d *Dictionary) Frozen() bool {
	return d.frozen
}

// EditDistance returns the distance the delete index was built for.
func (d *Dictionary) EditDistance() int {
	return d.editDistance
}

// Stats returns a summary of the dictionary.
func (d *Dictionary) Stats() Stats {
	return Stats{
		Words:         len(d.freqs),
		MaxFrequency:  d.maxFrequency,
		MaxWordLength: d.maxWordLength,
		EditDistance:  d.editDistance,
		Frozen:        d.frozen,
	}
}

// Freeze ends the mutable phase and indexes near matches up to maxEditDistance.
// Freezing again with a distance not larger than the indexed one is a no-op.
func (d *Dictionary) Freeze(maxEditDistance int) error {
	if maxEditDistance < 0 {
		return fmt.Errorf("negative edit distance %d", maxEditDistance)
	}
	if d.frozen {
		if maxEditDistance <= d.editDistance {
			return nil
		}
		return fmt.Errorf("%w: indexed for distance %d, requested %d", ErrFrozen, d.editDistance, maxEditDistance)
	}
	if maxEditDistance > 0 {
		d.deletes = buildDeleteIndex(d.freqs, maxEditDistance)
		log.Debugf("Delete index built: %d keys for %d words (distance %d)", len(d.deletes), len(d.freqs), maxEditDistance)
	}
	d.editDistance = maxEditDistance
	d.frozen = true
	return nil
}

// VisitPrefixes calls fn for every dictionary word that is a prefix of s,
// shortest first. A non-nil error from fn stops the walk and is returned.
func (d *Dictionary) VisitPrefixes(s string, fn func(word string, frequency uint64) error) error {
	return d.trie.VisitPrefixes(patricia.Prefix(s), func(p patricia.Prefix, item patricia.Item) error {
		if item == nil {
			return nil
		}
		return fn(string(p), item.(uint64))
	})
}

// Entries returns all entries sorted by frequency (highest first), then word.
func (d *Dictionary) Entries() []Entry {
	entries := make([]Entry, 0, len(d.freqs))
	for w, f := range d.freqs {
		entries = append(entries, Entry{Word: w, Frequency: f})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].Word < entries[j].Word
	})
	return entries
}
