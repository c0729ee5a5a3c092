// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wordfix command: a resegmenter for text whose
words were merged during extraction.

wordfix splits tokens such as "climatechange" into "climate change" when
every part is a dictionary word and the split does not change a single
character. Whitespace around tokens is preserved byte-for-byte.

# Usage

Resegment text from stdin:

	echo "the climatechange debate" | wordfix run --dict words.txt

Resegment every .txt and .pdf file in a directory, writing timestamped copies:

	wordfix run ./papers --ext .txt --ext .pdf --out ./clean

Add the vocabulary of a corpus to a dictionary before running:

	wordfix augment ./papers --dict words.txt --out words_domain.msgpack

Start the msgpack IPC server, or an interactive session for debugging:

	wordfix serve
	wordfix repl --trace

# Dictionary

The dictionary is a text file with one "word frequency" pair per line, or a
msgpack snapshot written by augment. Without --dict, dictionary.msgpack,
dictionary.txt and dictionary.tsv are searched in the working directory,
next to the executable, in its data/ dir and in the config dir.

# Configuration

Runtime configuration is managed through a TOML file, created with defaults
in the config dir if it doesn't exist:

	[dict]
	path = "data/dictionary.txt"
	delimiter = ""
	skip_malformed = false

	[segment]
	max_edit_distance = 0
	max_distance_limit = 2
	max_token_length = 64
	cache_size = 4096

	[batch]
	workers = 0
	document_timeout = "10s"
	extensions = [".txt", ".pdf"]

	[tokenizer]
	lemmatizer = "identity"
	entities = ""

Every key can be overridden with a WORDFIX_ environment variable, e.g.
WORDFIX_SEGMENT_MAX_TOKEN_LENGTH=32. Flags take precedence over both.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout:

	{"id": "req1", "text": "the climatechange debate"}
	{"id": "req1", "text": "the climate change debate", "n": 1, "t": 87}

See package server for the full protocol.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
