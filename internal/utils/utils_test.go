package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatWithCommas(t *testing.T) {
	testCases := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
		{-123456, "-123,456"},
	}
	for _, tc := range testCases {
		if got := FormatWithCommas(tc.input); got != tc.expected {
			t.Errorf("FormatWithCommas(%d): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"climate", 10, "climate"},
		{"climatechange", 8, "clima..."},
		{"cafénoir", 6, "caf..."},
		{"abc", 0, "abc"},
		{"abcdef", 2, "ab"},
	}
	for _, tc := range testCases {
		if got := Truncate(tc.input, tc.max); got != tc.expected {
			t.Errorf("Truncate(%q, %d): expected %q, got %q", tc.input, tc.max, tc.expected, got)
		}
	}
}

func TestResolveDictionary(t *testing.T) {
	dir := t.TempDir()
	dict := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(dict, []byte("climate 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	pr := &PathResolver{executableDir: dir, homeDir: dir, configDir: filepath.Join(dir, "config")}

	got, err := pr.ResolveDictionary(dict)
	if err != nil || got != dict {
		t.Errorf("absolute path: expected %s, got %s (%v)", dict, got, err)
	}

	got, err = pr.ResolveDictionary("words.txt")
	if err != nil || got != dict {
		t.Errorf("executable-relative path: expected %s, got %s (%v)", dict, got, err)
	}

	if _, err := pr.ResolveDictionary(filepath.Join(dir, "missing.txt")); !errors.Is(err, ErrDictionaryNotFound) {
		t.Errorf("expected ErrDictionaryNotFound, got %v", err)
	}

	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	def := filepath.Join(dataDir, "dictionary.txt")
	if err := os.WriteFile(def, []byte("climate 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = pr.ResolveDictionary("")
	if err != nil || got != def {
		t.Errorf("default search: expected %s, got %s (%v)", def, got, err)
	}
}

func TestExtractHelpers(t *testing.T) {
	data := map[string]any{
		"n":    int64(3),
		"b":    true,
		"s":    "tab",
		"list": []any{".txt", 4, ".pdf"},
	}
	if v, ok := ExtractInt64(data, "n"); !ok || v != 3 {
		t.Errorf("ExtractInt64: got %d, %v", v, ok)
	}
	if v, ok := ExtractBool(data, "b"); !ok || !v {
		t.Errorf("ExtractBool: got %v, %v", v, ok)
	}
	if v, ok := ExtractString(data, "s"); !ok || v != "tab" {
		t.Errorf("ExtractString: got %q, %v", v, ok)
	}
	if v, ok := ExtractStrings(data, "list"); !ok || len(v) != 2 || v[1] != ".pdf" {
		t.Errorf("ExtractStrings: got %v, %v", v, ok)
	}
	if _, ok := ExtractString(data, "n"); ok {
		t.Error("ExtractString should reject non-strings")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")

	write := func(text string) func(w io.Writer) error {
		return func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		}
	}
	if err := WriteFileAtomic(path, write("first")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	failed := errors.New("write failed")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return failed
	})
	if !errors.Is(err, failed) {
		t.Fatalf("expected the write error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "first" {
		t.Errorf("expected the previous content to survive, got %q (%v)", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp files to be removed, found %d entries", len(entries))
	}
}
