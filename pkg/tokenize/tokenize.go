// Package tokenize defines the token stream consumed by the resegmenter and a
// small default tokenizer that produces it.
//
// The default tokenizer is deliberately simple: whitespace runs separate
// chunks, leading and trailing punctuation is split off a chunk one rune at a
// time, and whatever remains is a single token. Writing Text followed by
// Whitespace for every token reproduces the input byte-for-byte.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one unit of the token stream with the attributes the resegmenter needs.
type Token struct {
	Text       string
	Whitespace string
	IsAlpha    bool
	IsEntity   bool
	Lemma      string
}

// TextWithWhitespace returns the token text followed by its trailing whitespace.
func (t Token) TextWithWhitespace() string {
	return t.Text + t.Whitespace
}

// Tokenizer produces an ordered token stream for a document.
type Tokenizer interface {
	Tokenize(text string) ([]Token, error)
}

// Lemmatizer maps a word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// EntityTagger reports whether a token is part of a named entity.
type EntityTagger interface {
	IsEntity(word string) bool
}

// Identity returns words unchanged.
type Identity struct{}

func (Identity) Lemma(word string) string { return word }

// Option configures the default tokenizer.
type Option func(*Default)

// WithLemmatizer sets the lemmatizer.
func WithLemmatizer(l Lemmatizer) Option {
	return func(d *Default) { d.lemmatizer = l }
}

// WithEntities sets the entity tagger.
func WithEntities(e EntityTagger) Option {
	return func(d *Default) { d.entities = e }
}

// Default is a whitespace and punctuation tokenizer.
type Default struct {
	lemmatizer Lemmatizer
	entities   EntityTagger
}

// New creates a default tokenizer. Without options it uses the identity
// lemmatizer and tags no entities.
func New(opts ...Option) *Default {
	d := &Default{lemmatizer: Identity{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tokenize splits text into tokens. It never fails.
func (d *Default) Tokenize(text string) ([]Token, error) {
	var tokens []Token

	i := 0
	// Leading whitespace has no token to trail, so it rides on an empty one.
	if ws := whitespaceRun(text); ws > 0 {
		tokens = append(tokens, Token{Whitespace: text[:ws]})
		i = ws
	}

	for i < len(text) {
		end := i
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			if unicode.IsSpace(r) {
				break
			}
			end += size
		}
		ws := whitespaceRun(text[end:])

		chunk := d.splitChunk(text[i:end])
		chunk[len(chunk)-1].Whitespace = text[end : end+ws]
		tokens = append(tokens, chunk...)
		i = end + ws
	}
	return tokens, nil
}

// splitChunk separates leading and trailing punctuation from a non-space run.
func (d *Default) splitChunk(chunk string) []Token {
	var head, tail []Token

	for chunk != "" {
		r, size := utf8.DecodeRuneInString(chunk)
		if !isPunct(r) {
			break
		}
		head = append(head, d.token(chunk[:size]))
		chunk = chunk[size:]
	}
	for chunk != "" {
		r, size := utf8.DecodeLastRuneInString(chunk)
		if !isPunct(r) {
			break
		}
		tail = append([]Token{d.token(chunk[len(chunk)-size:])}, tail...)
		chunk = chunk[:len(chunk)-size]
	}

	out := head
	if chunk != "" {
		out = append(out, d.token(chunk))
	}
	return append(out, tail...)
}

func (d *Default) token(text string) Token {
	tok := Token{
		Text:    text,
		IsAlpha: IsAlpha(text),
		Lemma:   text,
	}
	if d.lemmatizer != nil {
		tok.Lemma = d.lemmatizer.Lemma(text)
	}
	if d.entities != nil {
		tok.IsEntity = d.entities.IsEntity(text)
	}
	return tok
}

// IsAlpha reports whether s is non-empty and made only of letters.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func whitespaceRun(s string) int {
	return len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
}
