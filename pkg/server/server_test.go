package server

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordfix/pkg/config"
	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

// response covers the fields of every response type.
type response struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	Text      string `msgpack:"text"`
	Segmented int    `msgpack:"n"`
	Error     string `msgpack:"e"`
	Code      int    `msgpack:"c"`
	Words     int    `msgpack:"words"`
	Distance  int    `msgpack:"d"`
	Limit     int    `msgpack:"d_limit"`
}

func newEngine(t *testing.T) *resegment.Engine {
	t.Helper()
	d := dictionary.New()
	for w, f := range map[string]uint64{"the": 2000, "climate": 100, "change": 80, "debate": 20} {
		if err := d.Add(w, f); err != nil {
			t.Fatal(err)
		}
	}
	e, err := resegment.NewEngine(d, nil, resegment.Options{MaxDistanceLimit: 1, MaxTokenLength: 64})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func run(t *testing.T, srv func(in, out *bytes.Buffer) *Server, messages ...any) []response {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, m := range messages {
		if err := enc.Encode(m); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if err := srv(&in, &out).Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var responses []response
	dec := msgpack.NewDecoder(&out)
	for out.Len() > 0 {
		var r response
		if err := dec.Decode(&r); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		responses = append(responses, r)
	}
	return responses
}

func intPtr(i int) *int { return &i }

func TestServerResegment(t *testing.T) {
	engine := newEngine(t)
	cfg := config.DefaultConfig()
	cfg.Server.MaxTextBytes = 64
	factory := func(in, out *bytes.Buffer) *Server {
		return NewServerWithIO(engine, cfg, "", in, out)
	}

	responses := run(t, factory,
		Request{ID: "r1", Text: "theclimatechange  debate\n"},
		Request{ID: "r2", Text: "climatchange", Distance: intPtr(1)},
		Request{ID: "r3", Text: "climatechange", Distance: intPtr(2)},
		Request{ID: "r4", Text: string(bytes.Repeat([]byte("a"), 65))},
		"not a request",
		Request{ID: "r5", Action: "explode"},
	)

	if len(responses) != 7 {
		t.Fatalf("expected ready + 6 responses, got %d", len(responses))
	}
	if responses[0].Status != "ready" {
		t.Errorf("expected ready status first, got %+v", responses[0])
	}

	testCases := []struct {
		index     int
		id        string
		text      string
		segmented int
		code      int
	}{
		{1, "r1", "the climate change  debate\n", 1, 0},
		{2, "r2", "climatchange", 0, 0},
		{3, "r3", "", 0, CodeUnprocessable},
		{4, "r4", "", 0, CodeTooLarge},
		{5, "", "", 0, CodeBadRequest},
		{6, "r5", "", 0, CodeBadRequest},
	}
	for _, tc := range testCases {
		r := responses[tc.index]
		if r.ID != tc.id {
			t.Errorf("response %d: expected id %q, got %q", tc.index, tc.id, r.ID)
		}
		if r.Code != tc.code {
			t.Errorf("%s: expected code %d, got %d (%s)", tc.id, tc.code, r.Code, r.Error)
		}
		if tc.code == 0 && (r.Text != tc.text || r.Segmented != tc.segmented) {
			t.Errorf("%s: expected %q (%d), got %q (%d)", tc.id, tc.text, tc.segmented, r.Text, r.Segmented)
		}
	}
}

func TestServerActions(t *testing.T) {
	engine := newEngine(t)
	cfg := config.DefaultConfig()
	cfg.Segment.MaxDistanceLimit = 1
	path := filepath.Join(t.TempDir(), config.FileName)
	factory := func(in, out *bytes.Buffer) *Server {
		return NewServerWithIO(engine, cfg, path, in, out)
	}

	responses := run(t, factory,
		Request{ID: "i1", Action: "get_info"},
		Request{ID: "s1", Action: "set_distance", Distance: intPtr(1)},
		Request{ID: "s2", Action: "set_distance", Distance: intPtr(3)},
		Request{ID: "s3", Action: "set_distance"},
		Request{ID: "i2", Action: "get_info"},
	)
	if len(responses) != 6 {
		t.Fatalf("expected 6 responses, got %d", len(responses))
	}

	info := responses[1]
	if info.Words != 4 || info.Distance != 0 || info.Limit != 1 {
		t.Errorf("unexpected info %+v", info)
	}
	if responses[2].Status != "ok" || responses[2].Distance != 1 {
		t.Errorf("set_distance failed: %+v", responses[2])
	}
	if responses[3].Code != CodeUnprocessable {
		t.Errorf("expected %d for an out-of-range distance, got %+v", CodeUnprocessable, responses[3])
	}
	if responses[4].Code != CodeBadRequest {
		t.Errorf("expected %d for a missing distance, got %+v", CodeBadRequest, responses[4])
	}
	if responses[5].Distance != 1 {
		t.Errorf("expected distance 1 after update, got %d", responses[5].Distance)
	}

	saved, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if saved.Segment.MaxEditDistance != 1 {
		t.Errorf("expected the new distance to be saved, got %d", saved.Segment.MaxEditDistance)
	}
}

func TestServerStopsOnCancelledContext(t *testing.T) {
	var in, out bytes.Buffer
	_ = msgpack.NewEncoder(&in).Encode(Request{ID: "r1", Text: "climatechange"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewServerWithIO(newEngine(t), nil, "", &in, &out).Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var r response
	if err := msgpack.NewDecoder(&out).Decode(&r); err != nil || r.Status != "ready" {
		t.Fatalf("expected only the ready status, got %+v (%v)", r, err)
	}
	if in.Len() == 0 {
		t.Error("request should not have been consumed")
	}
}
