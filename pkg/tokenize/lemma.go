package tokenize

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/kljensen/snowball"
)

// Snowball lemmatizes by stemming with the Snowball algorithm for Language.
// Words the stemmer rejects are returned unchanged.
type Snowball struct {
	Language string
}

func (s Snowball) Lemma(word string) string {
	if !IsAlpha(word) {
		return word
	}
	stem, err := snowball.Stem(word, s.Language, true)
	if err != nil {
		return word
	}
	return stem
}

// NewLemmatizer returns the lemmatizer registered under name.
func NewLemmatizer(name, language string) (Lemmatizer, error) {
	switch strings.ToLower(name) {
	case "", "identity", "none":
		return Identity{}, nil
	case "snowball":
		if language == "" {
			language = "english"
		}
		if _, err := snowball.Stem("test", language, true); err != nil {
			return nil, fmt.Errorf("snowball: %w", err)
		}
		return Snowball{Language: language}, nil
	default:
		return nil, fmt.Errorf("unknown lemmatizer %q", name)
	}
}

// Gazetteer tags tokens found in a fixed, case-sensitive list of names.
type Gazetteer struct {
	names map[string]struct{}
}

// NewGazetteer builds a gazetteer from names.
func NewGazetteer(names ...string) *Gazetteer {
	g := &Gazetteer{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			g.names[n] = struct{}{}
		}
	}
	return g
}

// LoadGazetteer reads one name per line; blank lines and # comments are ignored.
func LoadGazetteer(path string) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gazetteer %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gazetteer %s: %w", path, err)
	}
	log.Debugf("Loaded %d gazetteer entries from %s", len(names), path)
	return NewGazetteer(names...), nil
}

func (g *Gazetteer) IsEntity(word string) bool {
	_, ok := g.names[word]
	return ok
}

// Len returns the number of names.
func (g *Gazetteer) Len() int {
	return len(g.names)
}
