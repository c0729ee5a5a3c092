// Package cli handles cmd line input for resegmenting text interactively, for DBG and testing.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	splitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// InputHandler reads lines, resegments each one and prints the result.
// Lines starting with ':' are commands:
//
//	:d N     set the default edit distance
//	:info    show dictionary and engine stats
//	:trace   toggle per-token tracing
type InputHandler struct {
	engine       *resegment.Engine
	in           io.Reader
	out          io.Writer
	trace        bool
	requestCount int
}

// NewInputHandler creates a handler reading from in and writing results to out.
func NewInputHandler(engine *resegment.Engine, in io.Reader, out io.Writer, trace bool) *InputHandler {
	return &InputHandler{engine: engine, in: in, out: out, trace: trace}
}

// Start runs the loop until the input ends or ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context) error {
	log.Print("wordfix REPL")
	log.Print("type text and press Enter to resegment it (Ctrl+D to exit):")

	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			h.handleCommand(strings.Fields(line[1:]))
			continue
		}
		h.handleInput(ctx, line)
	}
	return scanner.Err()
}

func (h *InputHandler) handleCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "d", "distance":
		if len(args) != 2 {
			log.Errorf("usage: :d N")
			return
		}
		d, err := strconv.Atoi(args[1])
		if err != nil {
			log.Errorf("invalid distance %q", args[1])
			return
		}
		if err := h.engine.SetDistance(d); err != nil {
			log.Errorf("%v", err)
			return
		}
		fmt.Fprintf(h.out, "distance set to %d\n", d)
	case "info":
		info := h.engine.Info()
		fmt.Fprintf(h.out, "words: %s, max frequency: %s, longest word: %d runes\n",
			utils.FormatWithCommas(info.Words), utils.FormatWithCommas(int(info.MaxFrequency)), info.MaxWordLength)
		fmt.Fprintf(h.out, "distance: %d (limit %d), max token length: %d, cached: %d\n",
			info.Distance, info.MaxDistanceLimit, info.MaxTokenLength, info.CacheEntries)
	case "trace":
		h.trace = !h.trace
		fmt.Fprintf(h.out, "trace %v\n", h.trace)
	default:
		log.Errorf("unknown command :%s", args[0])
	}
}

// handleInput resegments one line and prints the result.
func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++
	start := time.Now()

	out, rep, err := h.engine.ResegmentDocument(ctx, line)
	if err != nil {
		log.Errorf("Resegmenting failed: %v", err)
		return
	}
	log.Debugf("Took [ %v ] for %d tokens (%d eligible)", time.Since(start), rep.Tokens, rep.Eligible)
	for _, w := range rep.Warnings {
		log.Warn(w)
	}
	fmt.Fprintln(h.out, out)

	if !h.trace {
		return
	}
	traces, err := h.engine.Trace(ctx, line, h.engine.Distance())
	if err != nil {
		log.Errorf("Trace failed: %v", err)
		return
	}
	for _, tr := range traces {
		h.printTrace(tr)
	}
}

func (h *InputHandler) printTrace(tr resegment.TokenTrace) {
	word := utils.Truncate(tr.Token.Text, 40)
	switch {
	case tr.Accepted:
		fmt.Fprintf(h.out, "  %-40s %s\n", word, splitStyle.Render("-> "+tr.Candidate.String()))
	case tr.Candidate != nil:
		fmt.Fprintf(h.out, "  %-40s %s\n", word, rejectedStyle.Render(fmt.Sprintf("rejected %q (distance %d)", tr.Candidate.String(), tr.Candidate.Distance)))
	case tr.Err != nil:
		fmt.Fprintf(h.out, "  %-40s %s\n", word, rejectedStyle.Render(tr.Err.Error()))
	default:
		fmt.Fprintf(h.out, "  %-40s %s\n", word, dimStyle.Render(tr.Class.String()))
	}
}
