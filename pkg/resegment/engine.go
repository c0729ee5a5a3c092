/*
Package resegment repairs tokens that text extraction merged together.

An Engine owns everything a run needs: a frozen dictionary, a segmentation
search over it, a tokenizer and the limits. Each document flows through the
same stages. Tokens are classified once by the Selector; eligible tokens are
searched; results must pass the acceptance Policy (a pure split into
dictionary words); Render writes the document back with the original
whitespace.

The search may tolerate edits, but the acceptance policy never lets a
candidate change characters, so the engine only ever splits tokens.
*/
package resegment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordfix/internal/logger"
	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/segment"
	"github.com/bastiangx/wordfix/pkg/tokenize"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
)

// Options configures an Engine.
type Options struct {
	// MaxEditDistance is the default search budget.
	MaxEditDistance int
	// MaxDistanceLimit is the largest budget any request may use.
	MaxDistanceLimit int
	// MaxTokenLength is the longest token, in runes, that will be searched.
	MaxTokenLength int
	// DocumentTimeout bounds the time spent on one document. Zero disables it.
	DocumentTimeout time.Duration
	// Workers bounds the batch goroutine pool.
	Workers int
	// CacheSize is the number of memoized search results. Zero disables the cache.
	CacheSize int
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxEditDistance:  0,
		MaxDistanceLimit: 2,
		MaxTokenLength:   64,
		DocumentTimeout:  10 * time.Second,
		Workers:          runtime.NumCPU(),
		CacheSize:        4096,
	}
}

func (o Options) validate() error {
	if o.MaxDistanceLimit < 0 || o.MaxDistanceLimit > segment.HardMaxEditDistance {
		return fmt.Errorf("%w: limit %d outside [0, %d]", segment.ErrEditDistance, o.MaxDistanceLimit, segment.HardMaxEditDistance)
	}
	if o.MaxEditDistance < 0 || o.MaxEditDistance > o.MaxDistanceLimit {
		return fmt.Errorf("%w: default %d outside [0, %d]", segment.ErrEditDistance, o.MaxEditDistance, o.MaxDistanceLimit)
	}
	if o.MaxTokenLength < 0 {
		return fmt.Errorf("negative max token length %d", o.MaxTokenLength)
	}
	if o.DocumentTimeout < 0 {
		return fmt.Errorf("negative document timeout %s", o.DocumentTimeout)
	}
	return nil
}

// Report describes what happened to one document.
type Report struct {
	Tokens    int
	Eligible  int
	Segmented int
	Skipped   int
	Warnings  []error
}

// TokenError is a non-fatal problem with a single token.
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %q: %v", e.Token, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Info is a snapshot of the engine state.
type Info struct {
	Words            int
	MaxFrequency     uint64
	MaxWordLength    int
	Distance         int
	MaxDistanceLimit int
	MaxTokenLength   int
	CacheEntries     int
}

// Engine resegments documents against a frozen dictionary.
// It is safe for concurrent use.
type Engine struct {
	dict      *dictionary.Dictionary
	tokenizer Tokenizer
	selector  *Selector
	policy    Policy
	segmenter *segment.Segmenter
	opts      Options
	distance  atomic.Int32
	logger    *log.Logger
}

// NewEngine freezes dict for the configured distance limit and builds the engine.
// A nil tokenizer selects the default tokenizer.
func NewEngine(dict *dictionary.Dictionary, tokenizer Tokenizer, opts Options) (*Engine, error) {
	if dict == nil {
		return nil, errors.New("nil dictionary")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if tokenizer == nil {
		tokenizer = tokenize.New()
	}
	if err := dict.Freeze(opts.MaxDistanceLimit); err != nil {
		return nil, fmt.Errorf("failed to freeze dictionary: %w", err)
	}

	seg, err := segment.New(dict, segment.Options{
		MaxTokenLength:  opts.MaxTokenLength,
		MaxEditDistance: opts.MaxDistanceLimit,
		CacheSize:       opts.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dict:      dict,
		tokenizer: tokenizer,
		selector:  NewSelector(dict, opts.MaxTokenLength),
		policy:    NewPolicy(dict),
		segmenter: seg,
		opts:      opts,
		logger:    logger.New("resegment"),
	}
	e.distance.Store(int32(opts.MaxEditDistance))
	log.Debugf("Engine ready: %d words, distance %d (limit %d), %d workers",
		dict.Len(), opts.MaxEditDistance, opts.MaxDistanceLimit, opts.Workers)
	return e, nil
}

// Distance returns the default search budget.
func (e *Engine) Distance() int {
	return int(e.distance.Load())
}

// SetDistance changes the default search budget.
func (e *Engine) SetDistance(d int) error {
	if d < 0 || d > e.opts.MaxDistanceLimit {
		return fmt.Errorf("%w: %d (limit %d)", segment.ErrEditDistance, d, e.opts.MaxDistanceLimit)
	}
	e.distance.Store(int32(d))
	return nil
}

// Options returns the engine limits.
func (e *Engine) Options() Options {
	return e.opts
}

// Selector returns the candidate selector.
func (e *Engine) Selector() *Selector {
	return e.selector
}

// Info returns dictionary and engine statistics.
func (e *Engine) Info() Info {
	return Info{
		Words:            e.dict.Len(),
		MaxFrequency:     e.dict.MaxFrequency(),
		MaxWordLength:    e.dict.MaxWordLength(),
		Distance:         e.Distance(),
		MaxDistanceLimit: e.opts.MaxDistanceLimit,
		MaxTokenLength:   e.opts.MaxTokenLength,
		CacheEntries:     e.segmenter.CacheLen(),
	}
}

// ResegmentDocument resegments text with the default budget.
func (e *Engine) ResegmentDocument(ctx context.Context, text string) (string, Report, error) {
	return e.ResegmentDocumentWithDistance(ctx, text, e.Distance())
}

// ResegmentDocumentWithDistance resegments text with the given search budget.
// On error the original text is returned unchanged. Problems with single
// tokens are not errors; they are recorded in the report.
func (e *Engine) ResegmentDocumentWithDistance(ctx context.Context, text string, maxEditDistance int) (string, Report, error) {
	if maxEditDistance < 0 || maxEditDistance > e.opts.MaxDistanceLimit {
		return text, Report{}, fmt.Errorf("%w: %d (limit %d)", segment.ErrEditDistance, maxEditDistance, e.opts.MaxDistanceLimit)
	}
	if e.opts.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.DocumentTimeout)
		defer cancel()
	}

	tokens, err := e.tokenizer.Tokenize(text)
	if err != nil {
		return text, Report{}, fmt.Errorf("failed to tokenize document: %w", err)
	}

	rep := Report{Tokens: len(tokens)}
	items := make([]Segmented, len(tokens))
	expired := false

	for i, tok := range tokens {
		items[i].Token = tok

		switch e.selector.Classify(tok) {
		case ClassTooLong:
			rep.Skipped++
			e.warn(&rep, tok.Text, segment.ErrInputTooLong)
			continue
		case ClassEligible:
		default:
			continue
		}

		rep.Eligible++
		if expired {
			rep.Skipped++
			continue
		}

		cand, ok, err := e.segmenter.Segment(ctx, tok.Text, maxEditDistance)
		if err != nil {
			rep.Skipped++
			e.warn(&rep, tok.Text, err)
			// Once the document deadline passes, the remaining tokens are left as they are.
			expired = errors.Is(err, segment.ErrTimeout) && ctx.Err() != nil
			continue
		}
		// A single part is the token itself; nothing to split.
		if ok && len(cand.Parts) > 1 && e.policy.Accept(tok.Text, cand) {
			items[i].Candidate = &cand
			rep.Segmented++
		}
	}

	return Render(items), rep, nil
}

func (e *Engine) warn(rep *Report, token string, err error) {
	w := &TokenError{Token: token, Err: err}
	rep.Warnings = append(rep.Warnings, w)
	e.logger.Warn("token left unchanged", "err", w)
}

// Document is one input of a batch.
type Document struct {
	ID   string
	Text string
}

// BatchResult is the outcome for one document of a batch.
type BatchResult struct {
	ID     string
	Text   string
	Report Report
	Err    error
}

// ResegmentBatch resegments docs concurrently with the default budget.
// Results are in input order. A failing document keeps its original text and
// reports the failure in its result without affecting the others.
func (e *Engine) ResegmentBatch(ctx context.Context, docs []Document) []BatchResult {
	results := make([]BatchResult, len(docs))
	distance := e.Distance()

	p := pool.New().WithMaxGoroutines(e.opts.Workers)
	for i, doc := range docs {
		p.Go(func() {
			results[i] = e.resegmentIsolated(ctx, doc, distance)
		})
	}
	p.Wait()
	return results
}

func (e *Engine) resegmentIsolated(ctx context.Context, doc Document, distance int) (res BatchResult) {
	res = BatchResult{ID: doc.ID, Text: doc.Text}
	defer func() {
		if r := recover(); r != nil {
			res = BatchResult{ID: doc.ID, Text: doc.Text, Err: fmt.Errorf("panic while resegmenting %s: %v", doc.ID, r)}
			e.logger.Error("document failed", "id", doc.ID, "err", res.Err)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	text, rep, err := e.ResegmentDocumentWithDistance(ctx, doc.Text, distance)
	res.Text, res.Report, res.Err = text, rep, err
	if err != nil {
		e.logger.Error("document failed", "id", doc.ID, "err", err)
	}
	return res
}

// ResegmentDocument resegments text against dict with the default tokenizer.
// dict is frozen for maxEditDistance if it is not frozen yet. On failure the
// original text is returned with the error.
func ResegmentDocument(ctx context.Context, text string, dict *dictionary.Dictionary, maxEditDistance int) (string, error) {
	opts := DefaultOptions()
	opts.MaxEditDistance = maxEditDistance
	opts.MaxDistanceLimit = maxEditDistance
	opts.CacheSize = 0
	opts.Workers = 1

	e, err := NewEngine(dict, tokenize.New(), opts)
	if err != nil {
		return text, err
	}
	out, _, err := e.ResegmentDocument(ctx, text)
	return out, err
}

// TokenTrace is the per-token outcome of a resegmentation.
type TokenTrace struct {
	Token Token
	Class Class
	// Candidate is the best search result, accepted or not.
	Candidate *segment.Candidate
	Accepted  bool
	Err       error
}

// Trace runs selection, search and acceptance on text without rendering,
// reporting every non-whitespace token.
func (e *Engine) Trace(ctx context.Context, text string, maxEditDistance int) ([]TokenTrace, error) {
	if maxEditDistance < 0 || maxEditDistance > e.opts.MaxDistanceLimit {
		return nil, fmt.Errorf("%w: %d (limit %d)", segment.ErrEditDistance, maxEditDistance, e.opts.MaxDistanceLimit)
	}
	tokens, err := e.tokenizer.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize document: %w", err)
	}

	var traces []TokenTrace
	for _, tok := range tokens {
		if tok.Text == "" {
			continue
		}
		tr := TokenTrace{Token: tok, Class: e.selector.Classify(tok)}
		if tr.Class == ClassEligible {
			cand, ok, err := e.segmenter.Segment(ctx, tok.Text, maxEditDistance)
			switch {
			case err != nil:
				tr.Err = err
			case ok:
				tr.Candidate = &cand
				tr.Accepted = len(cand.Parts) > 1 && e.policy.Accept(tok.Text, cand)
			}
		}
		traces = append(traces, tr)
	}
	return traces, nil
}
