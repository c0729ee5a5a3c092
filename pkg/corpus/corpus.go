// Package corpus finds, reads and writes the documents a batch run works on.
package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// TimestampLayout is the layout used in generated file names.
const TimestampLayout = "01-02-06_15-04-05"

var (
	ErrNotPDF        = errors.New("missing PDF signature")
	ErrEmptyDocument = errors.New("no readable text in document")
)

var pdfMagic = []byte("%PDF-")

// Filter selects documents by name. An empty filter matches every file.
type Filter struct {
	patterns   []*regexp.Regexp
	extensions []string
}

// NewFilter compiles patterns. A name must match at least one pattern and end
// with one of the extensions, when either list is non-empty.
func NewFilter(patterns, extensions []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	for _, ext := range extensions {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions = append(f.extensions, strings.ToLower(ext))
	}
	return f, nil
}

// Match reports whether name passes the filter.
func (f *Filter) Match(name string) bool {
	if len(f.extensions) > 0 {
		lower := strings.ToLower(name)
		ok := false
		for _, ext := range f.extensions {
			if strings.HasSuffix(lower, ext) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.patterns) == 0 {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Discover lists the files directly inside dir that pass f, oldest first.
func Discover(dir string, f *Filter) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	type found struct {
		path    string
		modTime time.Time
	}
	var files []found
	for _, e := range entries {
		if !e.Type().IsRegular() || (f != nil && !f.Match(e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Warnf("Skipping %s: %v", e.Name(), err)
			continue
		}
		files = append(files, found{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].path < files[j].path
	})

	paths := make([]string, len(files))
	for i, fi := range files {
		paths[i] = fi.path
	}
	log.Debugf("%d files found in %s", len(paths), dir)
	return paths, nil
}

// Collect expands paths: files are kept as given, directories are discovered.
func Collect(paths []string, f *Filter) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := Discover(p, f)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// IsPDF reports whether the file at path starts with the PDF signature.
func IsPDF(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, pdfMagic), nil
}

// ReadDocument returns the text of a document. Files with a PDF signature
// are converted to plain text; anything else is read as UTF-8 text.
func ReadDocument(path string) (string, error) {
	isPDF, err := IsPDF(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if isPDF {
		return readPDF(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", fmt.Errorf("%s: %w", path, ErrNotPDF)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func readPDF(path string) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	log.Debugf("Extracted %d bytes of text from %s (%d pages)", sb.Len(), path, r.NumPage())
	return sb.String(), nil
}

// TimestampedName builds "<prefix>_<timestamp>[_<suffix>].<ext>".
func TimestampedName(prefix, suffix, ext string, t time.Time) string {
	ext = strings.TrimPrefix(ext, ".")
	name := prefix + "_" + t.Format(TimestampLayout)
	if suffix != "" {
		name += "_" + suffix
	}
	return name + "." + ext
}

// OutputName derives the timestamped output name for a source document.
func OutputName(source string, t time.Time) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return TimestampedName(base, "resegmented", "txt", t)
}

// WriteDocument writes text to dir/name, creating dir if needed.
func WriteDocument(dir, name, text string) (string, error) {
	path := filepath.Join(dir, name)
	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
