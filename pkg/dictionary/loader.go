package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrLoad matches every *LoadError via errors.Is.
var ErrLoad = errors.New("dictionary load failed")

// LoadError describes why a dictionary resource could not be loaded.
// Line is 1-based and zero when the failure is not tied to a row.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = "<reader>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("dictionary %s line %d: %v", src, e.Line, e.Err)
	}
	return fmt.Sprintf("dictionary %s: %v", src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// LoadOptions controls how a text resource is parsed.
type LoadOptions struct {
	// Delimiter separates word and frequency. Empty means any run of spaces or tabs.
	Delimiter string
	// SkipMalformed logs and skips bad rows instead of failing the load.
	SkipMalformed bool
	// MaxWords stops after this many entries. Zero loads everything.
	MaxWords int
}

const scannerBufSize = 1024 * 1024

// Load reads a dictionary from path, picking the parser from the file extension.
// The returned dictionary is still mutable.
func Load(path string, opts LoadOptions) (*Dictionary, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var d *Dictionary
	switch format {
	case FormatSnapshot:
		d, err = ReadSnapshot(f)
	default:
		d, err = loadText(f, path, opts)
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	log.Debugf("Loaded %d words from %s (%s)", d.Len(), path, format)
	return d, nil
}

// LoadReader parses delimited word/frequency rows from r.
func LoadReader(r io.Reader, opts LoadOptions) (*Dictionary, error) {
	return loadText(r, "", opts)
}

func loadText(r io.Reader, path string, opts LoadOptions) (*Dictionary, error) {
	d := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), scannerBufSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if opts.MaxWords > 0 && d.Len() >= opts.MaxWords {
			break
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, freq, err := parseRow(line, opts.Delimiter)
		if err == nil {
			err = d.Add(word, freq)
		}
		if err != nil {
			if opts.SkipMalformed {
				log.Warnf("Skipping malformed dictionary row %d: %v", lineNo, err)
				continue
			}
			return nil, &LoadError{Path: path, Line: lineNo, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Path: path, Line: lineNo, Err: err}
	}
	return d, nil
}

// parseRow splits a row into exactly two fields: word and unsigned frequency.
func parseRow(line, delim string) (string, uint64, error) {
	var fields []string
	if delim == "" {
		fields = strings.Fields(line)
	} else {
		fields = strings.Split(line, delim)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
	}
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	if fields[0] == "" {
		return "", 0, ErrEmptyWord
	}
	freq, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid frequency %q: %w", fields[1], err)
	}
	return fields[0], freq, nil
}
