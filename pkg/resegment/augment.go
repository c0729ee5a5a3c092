package resegment

import (
	"fmt"
	"unicode/utf8"

	"github.com/bastiangx/wordfix/pkg/dictionary"
)

// AugmentDictionary adds every alphabetic, non-entity token longer than one
// rune to dict with frequency 1. It must run before the dictionary is frozen.
func AugmentDictionary(dict *dictionary.Dictionary, tokens []Token) (*dictionary.Dictionary, error) {
	if dict.Frozen() {
		return nil, fmt.Errorf("cannot augment: %w", dictionary.ErrFrozen)
	}
	for _, tok := range tokens {
		if !tok.IsAlpha || tok.IsEntity || utf8.RuneCountInString(tok.Text) <= 1 {
			continue
		}
		if err := dict.Add(tok.Text, 1); err != nil {
			return nil, fmt.Errorf("failed to add %q: %w", tok.Text, err)
		}
	}
	return dict, nil
}

// AugmentFromText tokenizes text and augments dict with the result.
func AugmentFromText(dict *dictionary.Dictionary, tokenizer Tokenizer, text string) (*dictionary.Dictionary, error) {
	tokens, err := tokenizer.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize: %w", err)
	}
	return AugmentDictionary(dict, tokens)
}
