package resegment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/segment"
	"github.com/bastiangx/wordfix/pkg/tokenize"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func newDict(t *testing.T, words map[string]uint64) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.New()
	for w, f := range words {
		if err := d.Add(w, f); err != nil {
			t.Fatalf("Add(%q): %v", w, err)
		}
	}
	return d
}

func newEngine(t *testing.T, words map[string]uint64, tk Tokenizer, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(newDict(t, words), tk, opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

var climate = map[string]uint64{"climate": 100, "change": 80}

func TestClassify(t *testing.T) {
	s := NewSelector(newDict(t, map[string]uint64{"climate": 100, "a": 500}), 10)

	testCases := []struct {
		description string
		token       Token
		expected    Class
	}{
		{"merged words", Token{Text: "climatechange", IsAlpha: true, Lemma: "climatechange"}, ClassTooLong},
		{"short unknown", Token{Text: "atechange", IsAlpha: true, Lemma: "atechange"}, ClassEligible},
		{"number", Token{Text: "2024", Lemma: "2024"}, ClassNotAlpha},
		{"entity", Token{Text: "NewYork", IsAlpha: true, IsEntity: true, Lemma: "NewYork"}, ClassEntity},
		{"known after case folding", Token{Text: "Climate", IsAlpha: true, Lemma: "Climate"}, ClassKnown},
		{"single known letter", Token{Text: "a", IsAlpha: true, Lemma: "a"}, ClassKnown},
		{"missing lemma falls back to text", Token{Text: "climate", IsAlpha: true}, ClassKnown},
		{"known lemma", Token{Text: "climates", IsAlpha: true, Lemma: "climate"}, ClassKnown},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if got := s.Classify(tc.token); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
			if s.IsEligible(tc.token) != (tc.expected == ClassEligible) {
				t.Errorf("IsEligible disagrees with Classify")
			}
		})
	}
}

func TestAccept(t *testing.T) {
	p := NewPolicy(newDict(t, climate))

	testCases := []struct {
		description string
		original    string
		parts       []string
		expected    bool
	}{
		{"pure split", "climatechange", []string{"climate", "change"}, true},
		{"single word", "climate", []string{"climate"}, true},
		{"corrected characters", "climatchange", []string{"climate", "change"}, false},
		{"unknown parts", "climatechange", []string{"climat", "echange"}, false},
		{"no parts", "climatechange", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := p.Accept(tc.original, segment.Candidate{Parts: tc.parts})
			if got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestRenderPreservesWhitespace(t *testing.T) {
	cand := segment.Candidate{Parts: []string{"climate", "change"}}
	items := []Segmented{
		{Token: Token{Whitespace: "\n "}},
		{Token: Token{Text: "the", Whitespace: "   "}},
		{Token: Token{Text: "climatechange", Whitespace: "\t\n\n"}, Candidate: &cand},
		{Token: Token{Text: "end"}},
	}
	want := "\n the   climate change\t\n\nend"
	if got := Render(items); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestScenarios(t *testing.T) {
	gazetteer := tokenize.NewGazetteer("NewYork")
	words := map[string]uint64{"climate": 100, "change": 80, "New": 50, "York": 40, "a": 500}

	testCases := []struct {
		description string
		input       string
		distance    int
		expected    string
		segmented   int
	}{
		{"merged words are split", "climatechange\n", 0, "climate change\n", 1},
		{"missing letter is not corrected", "climatchange ", 0, "climatchange ", 0},
		{"fuzzy match is rejected", "climatchange ", 1, "climatchange ", 0},
		{"named entity is kept", "NewYork", 0, "NewYork", 0},
		{"known single letter is kept", "a", 0, "a", 0},
	}

	e := newEngine(t, words, tokenize.New(tokenize.WithEntities(gazetteer)), Options{MaxDistanceLimit: 1, MaxTokenLength: 32})
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got, rep, err := e.ResegmentDocumentWithDistance(context.Background(), tc.input, tc.distance)
			if err != nil {
				t.Fatalf("ResegmentDocument: %v", err)
			}
			if got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
			if rep.Segmented != tc.segmented {
				t.Errorf("expected %d segmented tokens, got %d", tc.segmented, rep.Segmented)
			}
		})
	}

	// Without the entity tag the same token would be split.
	plain := newEngine(t, words, tokenize.New(), Options{MaxTokenLength: 32})
	if got, _, _ := plain.ResegmentDocument(context.Background(), "NewYork"); got != "New York" {
		t.Errorf("untagged token: expected %q, got %q", "New York", got)
	}
}

func TestResegmentDocumentProperties(t *testing.T) {
	words := map[string]uint64{
		"the": 2000, "climate": 100, "change": 80, "policy": 60, "of": 1500, "carbon": 30, "tax": 25,
	}
	e := newEngine(t, words, nil, Options{MaxDistanceLimit: 2, MaxTokenLength: 64, CacheSize: 16})

	inputs := []string{
		"  the climatechange\t\n(climatechange)  policy",
		"carbontax of theclimate policy.\r\n\r\n",
		"Already fine text of the policy.",
		"",
		"   \n\t",
	}

	for _, in := range inputs {
		out, rep, err := e.ResegmentDocument(context.Background(), in)
		if err != nil {
			t.Fatalf("ResegmentDocument(%q): %v", in, err)
		}

		// Only spaces are ever inserted.
		if strings.Join(strings.Fields(out), "") != strings.Join(strings.Fields(in), "") {
			t.Errorf("%q: characters changed, got %q", in, out)
		}
		if strings.Count(out, " ")-strings.Count(in, " ") < rep.Segmented {
			t.Errorf("%q: expected at least %d inserted spaces", in, rep.Segmented)
		}

		again, rep2, err := e.ResegmentDocument(context.Background(), out)
		if err != nil {
			t.Fatalf("second pass: %v", err)
		}
		if again != out {
			t.Errorf("not idempotent: %q -> %q", out, again)
		}
		if rep2.Segmented != 0 {
			t.Errorf("second pass segmented %d tokens", rep2.Segmented)
		}
	}

	out, _, _ := e.ResegmentDocument(context.Background(), inputs[0])
	if want := "  the climate change\t\n(climate change)  policy"; out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
	out, _, _ = e.ResegmentDocument(context.Background(), inputs[1])
	if want := "carbon tax of the climate policy.\r\n\r\n"; out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestAcceptedPartsAreDictionaryWords(t *testing.T) {
	dict := newDict(t, map[string]uint64{"climate": 100, "change": 80, "a": 10, "te": 5})
	e, err := NewEngine(dict, nil, Options{MaxDistanceLimit: 1})
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := e.ResegmentDocumentWithDistance(context.Background(), "climatechange climatetechange", 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range strings.Fields(out) {
		if w == "climatetechange" {
			continue
		}
		if !dict.Contains(w) {
			t.Errorf("output word %q is not in the dictionary", w)
		}
	}
}

func TestTooLongTokenIsWarned(t *testing.T) {
	e := newEngine(t, climate, nil, Options{MaxTokenLength: 5})

	out, rep, err := e.ResegmentDocument(context.Background(), "climatechange")
	if err != nil {
		t.Fatalf("ResegmentDocument: %v", err)
	}
	if out != "climatechange" {
		t.Errorf("expected the token unchanged, got %q", out)
	}
	if rep.Skipped != 1 || len(rep.Warnings) != 1 {
		t.Fatalf("expected one skipped token with a warning, got %+v", rep)
	}
	if !errors.Is(rep.Warnings[0], segment.ErrInputTooLong) {
		t.Errorf("expected ErrInputTooLong, got %v", rep.Warnings[0])
	}
	var te *TokenError
	if !errors.As(rep.Warnings[0], &te) || te.Token != "climatechange" {
		t.Errorf("expected a TokenError for the token, got %v", rep.Warnings[0])
	}
}

func TestExpiredContextLeavesTextUnchanged(t *testing.T) {
	e := newEngine(t, climate, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := "climatechange and climatechange"
	out, rep, err := e.ResegmentDocument(ctx, in)
	if err != nil {
		t.Fatalf("timeouts must not fail the document: %v", err)
	}
	if out != in {
		t.Errorf("expected unchanged text, got %q", out)
	}
	if rep.Eligible != 3 || rep.Skipped != 3 {
		t.Errorf("expected 3 eligible and skipped tokens, got %+v", rep)
	}
	if len(rep.Warnings) != 1 || !errors.Is(rep.Warnings[0], segment.ErrTimeout) {
		t.Errorf("expected a single timeout warning, got %v", rep.Warnings)
	}
}

func TestDistanceLimits(t *testing.T) {
	e := newEngine(t, climate, nil, Options{MaxDistanceLimit: 1})

	if _, _, err := e.ResegmentDocumentWithDistance(context.Background(), "x", 2); !errors.Is(err, segment.ErrEditDistance) {
		t.Errorf("expected ErrEditDistance, got %v", err)
	}
	if err := e.SetDistance(2); !errors.Is(err, segment.ErrEditDistance) {
		t.Errorf("expected ErrEditDistance, got %v", err)
	}
	if err := e.SetDistance(1); err != nil {
		t.Fatalf("SetDistance: %v", err)
	}
	if e.Distance() != 1 || e.Info().Distance != 1 {
		t.Errorf("expected distance 1, got %d", e.Distance())
	}

	if _, err := NewEngine(newDict(t, climate), nil, Options{MaxDistanceLimit: segment.HardMaxEditDistance + 1}); !errors.Is(err, segment.ErrEditDistance) {
		t.Errorf("expected ErrEditDistance for an oversized limit, got %v", err)
	}
	if _, err := NewEngine(newDict(t, climate), nil, Options{MaxEditDistance: 2, MaxDistanceLimit: 1}); !errors.Is(err, segment.ErrEditDistance) {
		t.Errorf("expected ErrEditDistance for a default above the limit, got %v", err)
	}

	frozen := newDict(t, climate)
	_ = frozen.Freeze(0)
	if _, err := NewEngine(frozen, nil, Options{MaxDistanceLimit: 2}); !errors.Is(err, dictionary.ErrFrozen) {
		t.Errorf("expected ErrFrozen for an under-indexed dictionary, got %v", err)
	}
}

type flakyTokenizer struct {
	base Tokenizer
}

func (f flakyTokenizer) Tokenize(text string) ([]Token, error) {
	switch text {
	case "boom":
		return nil, errors.New("tokenizer failed")
	case "panic":
		panic("tokenizer panicked")
	}
	return f.base.Tokenize(text)
}

func TestResegmentBatch(t *testing.T) {
	e := newEngine(t, climate, flakyTokenizer{base: tokenize.New()}, Options{Workers: 3})

	docs := []Document{
		{ID: "one", Text: "climatechange"},
		{ID: "two", Text: "boom"},
		{ID: "three", Text: "changeclimate\n"},
		{ID: "four", Text: "panic"},
		{ID: "five", Text: "nothing here"},
	}
	results := e.ResegmentBatch(context.Background(), docs)

	if len(results) != len(docs) {
		t.Fatalf("expected %d results, got %d", len(docs), len(results))
	}

	expected := []struct {
		text   string
		failed bool
	}{
		{"climate change", false},
		{"boom", true},
		{"change climate\n", false},
		{"panic", true},
		{"nothing here", false},
	}
	for i, res := range results {
		if res.ID != docs[i].ID {
			t.Errorf("result %d: expected id %s, got %s", i, docs[i].ID, res.ID)
		}
		if res.Text != expected[i].text {
			t.Errorf("%s: expected %q, got %q", res.ID, expected[i].text, res.Text)
		}
		if (res.Err != nil) != expected[i].failed {
			t.Errorf("%s: unexpected error state %v", res.ID, res.Err)
		}
	}
}

func TestResegmentDocumentFunc(t *testing.T) {
	out, err := ResegmentDocument(context.Background(), "theclimatechange", newDict(t, map[string]uint64{
		"the": 10, "climate": 100, "change": 80,
	}), 0)
	if err != nil {
		t.Fatalf("ResegmentDocument: %v", err)
	}
	if out != "the climate change" {
		t.Errorf("expected %q, got %q", "the climate change", out)
	}

	if out, err := ResegmentDocument(context.Background(), "text", newDict(t, climate), 9); err == nil || out != "text" {
		t.Errorf("expected the original text and an error, got %q, %v", out, err)
	}
}

func TestAugmentDictionary(t *testing.T) {
	dict := newDict(t, map[string]uint64{"policy": 10})
	tk := tokenize.New(tokenize.WithEntities(tokenize.NewGazetteer("NewYork")))

	if _, err := AugmentFromText(dict, tk, "decarbonization is a NewYork thing, 42 thing"); err != nil {
		t.Fatalf("AugmentFromText: %v", err)
	}

	testCases := []struct {
		word      string
		frequency uint64
		present   bool
	}{
		{"decarbonization", 1, true},
		{"thing", 2, true},
		{"is", 1, true},
		{"policy", 10, true},
		{"a", 0, false},
		{"NewYork", 0, false},
		{"42", 0, false},
		{",", 0, false},
	}
	for _, tc := range testCases {
		f, ok := dict.Frequency(tc.word)
		if ok != tc.present || f != tc.frequency {
			t.Errorf("%q: expected (%d, %v), got (%d, %v)", tc.word, tc.frequency, tc.present, f, ok)
		}
	}

	e, err := NewEngine(dict, tk, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out, _, _ := e.ResegmentDocument(context.Background(), "decarbonizationpolicy"); out != "decarbonization policy" {
		t.Errorf("augmented word was not used, got %q", out)
	}

	if _, err := AugmentDictionary(dict, nil); !errors.Is(err, dictionary.ErrFrozen) {
		t.Errorf("expected ErrFrozen after the engine froze the dictionary, got %v", err)
	}
}

func TestTrace(t *testing.T) {
	e := newEngine(t, climate, nil, Options{MaxDistanceLimit: 1})

	traces, err := e.Trace(context.Background(), "climatechange climate 2024 climatchange", 1)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}

	testCases := []struct {
		text         string
		class        Class
		hasCandidate bool
		accepted     bool
	}{
		{"climatechange", ClassEligible, true, true},
		{"climate", ClassKnown, false, false},
		{"2024", ClassNotAlpha, false, false},
		{"climatchange", ClassEligible, true, false},
	}
	if len(traces) != len(testCases) {
		t.Fatalf("expected %d traces, got %d", len(testCases), len(traces))
	}
	for i, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			tr := traces[i]
			if tr.Token.Text != tc.text || tr.Class != tc.class {
				t.Errorf("expected %s/%s, got %s/%s", tc.text, tc.class, tr.Token.Text, tr.Class)
			}
			if (tr.Candidate != nil) != tc.hasCandidate || tr.Accepted != tc.accepted {
				t.Errorf("expected candidate=%v accepted=%v, got %+v", tc.hasCandidate, tc.accepted, tr)
			}
		})
	}

	if _, err := e.Trace(context.Background(), "x", 2); !errors.Is(err, segment.ErrEditDistance) {
		t.Errorf("expected ErrEditDistance, got %v", err)
	}
}
