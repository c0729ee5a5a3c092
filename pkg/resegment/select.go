package resegment

import (
	"unicode/utf8"

	"github.com/bastiangx/wordfix/pkg/tokenize"
	"golang.org/x/text/cases"
)

// Token and Tokenizer are the token stream types the resegmenter consumes.
type (
	Token     = tokenize.Token
	Tokenizer = tokenize.Tokenizer
)

// Lookup is the dictionary lookup set.
type Lookup interface {
	Contains(word string) bool
}

// Class is the outcome of candidate selection for one token.
type Class int

const (
	ClassEligible Class = iota
	ClassNotAlpha
	ClassEntity
	ClassKnown
	ClassTooLong
)

func (c Class) String() string {
	switch c {
	case ClassEligible:
		return "eligible"
	case ClassNotAlpha:
		return "not-alpha"
	case ClassEntity:
		return "entity"
	case ClassKnown:
		return "known"
	case ClassTooLong:
		return "too-long"
	default:
		return "unknown"
	}
}

// Selector decides which tokens are worth a segmentation search.
type Selector struct {
	dict           Lookup
	maxTokenLength int
}

// NewSelector creates a selector over dict. Tokens longer than maxTokenLength
// runes are classified ClassTooLong; zero disables the limit.
func NewSelector(dict Lookup, maxTokenLength int) *Selector {
	return &Selector{dict: dict, maxTokenLength: maxTokenLength}
}

// Classify returns the class of tok. Checks run in order: alphabetic, entity,
// known word, length.
func (s *Selector) Classify(tok Token) Class {
	if !tok.IsAlpha {
		return ClassNotAlpha
	}
	if tok.IsEntity {
		return ClassEntity
	}
	lemma := tok.Lemma
	if lemma == "" {
		lemma = tok.Text
	}
	// Casers keep state, so each call gets its own.
	if s.dict.Contains(cases.Fold().String(lemma)) {
		return ClassKnown
	}
	if s.maxTokenLength > 0 && utf8.RuneCountInString(tok.Text) > s.maxTokenLength {
		return ClassTooLong
	}
	return ClassEligible
}

// IsEligible reports whether tok should be searched.
func (s *Selector) IsEligible(tok Token) bool {
	return s.Classify(tok) == ClassEligible
}
