package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func newEngine(t *testing.T) *resegment.Engine {
	t.Helper()
	d := dictionary.New()
	for w, f := range map[string]uint64{"climate": 100, "change": 80, "policy": 40} {
		if err := d.Add(w, f); err != nil {
			t.Fatal(err)
		}
	}
	e, err := resegment.NewEngine(d, nil, resegment.Options{MaxDistanceLimit: 1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestInputHandler(t *testing.T) {
	engine := newEngine(t)
	in := strings.NewReader("climatechange policy\n\n:d 1\n:info\n:trace\nclimatchange climatepolicy\n:bogus\n")
	var out bytes.Buffer

	if err := NewInputHandler(engine, in, &out, false).Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := out.String()

	expected := []string{
		"climate change policy\n",
		"distance set to 1\n",
		"words: 3",
		"distance: 1 (limit 1)",
		"trace true\n",
		"climatchange climate policy\n",
		"-> climate policy",
		"rejected \"climate change\" (distance 1)",
	}
	for _, want := range expected {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if engine.Distance() != 1 {
		t.Errorf("expected distance 1, got %d", engine.Distance())
	}
}

func TestInputHandlerRejectsBadDistance(t *testing.T) {
	engine := newEngine(t)
	var out bytes.Buffer
	in := strings.NewReader(":d 5\n:d x\n:d\n")

	if err := NewInputHandler(engine, in, &out, false).Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if out.Len() != 0 || engine.Distance() != 0 {
		t.Errorf("invalid commands should not change anything, got %q (distance %d)", out.String(), engine.Distance())
	}
}
