package dictionary

import (
	"bufio"
	"fmt"
	"io"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

type snapshot struct {
	Version int     `msgpack:"v"`
	Entries []Entry `msgpack:"e"`
}

// WriteSnapshot encodes all entries as a msgpack snapshot.
func (d *Dictionary) WriteSnapshot(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(snapshot{Version: snapshotVersion, Entries: d.Entries()})
}

// ReadSnapshot decodes a msgpack snapshot into a new mutable dictionary.
func ReadSnapshot(r io.Reader) (*Dictionary, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	if snap.Version != snapshotVersion {
		return nil, &LoadError{Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}
	d, err := FromEntries(snap.Entries)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return d, nil
}

// WriteText writes one "word<delim>frequency" row per entry.
// An empty delimiter writes a single space.
func (d *Dictionary) WriteText(w io.Writer, delim string) error {
	if delim == "" {
		delim = " "
	}
	bw := bufio.NewWriter(w)
	for _, e := range d.Entries() {
		if _, err := fmt.Fprintf(bw, "%s%s%d\n", e.Word, delim, e.Frequency); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes the dictionary to path in the format implied by its extension.
func (d *Dictionary) Save(path, delim string) error {
	format := FormatForPath(path)
	if format == FormatUnknown {
		return fmt.Errorf("unable to detect format for file %s", path)
	}

	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		if format == FormatSnapshot {
			return d.WriteSnapshot(w)
		}
		return d.WriteText(w, delim)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
