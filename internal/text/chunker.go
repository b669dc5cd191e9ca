package text

import (
	"errors"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ErrEmptyInput is returned when splitting produces no usable chunks,
// e.g. the source text is empty or whitespace-only.
var ErrEmptyInput = errors.New("no chunks produced from input text")

type Options struct {
	ChunkSize    int
	ChunkOverlap int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = DefaultChunkOverlap
		if o.ChunkOverlap >= o.ChunkSize {
			o.ChunkOverlap = o.ChunkSize / 5
		}
	}
	return o
}

// separators, coarsest first: paragraphs, lines, sentences, words.
// The empty string means a hard character cut and must stay last.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Split breaks text into chunks of at most ChunkSize characters, preferring
// structural boundaries and carrying up to ChunkOverlap trailing characters
// into the next chunk to preserve local context. The result is deterministic
// for a given input and options.
func Split(text string, opts Options) ([]string, error) {
	opts = opts.withDefaults()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	var chunks []string
	for _, c := range split(trimmed, opts.ChunkSize, opts.ChunkOverlap, separators) {
		c = strings.TrimSpace(c)
		if c != "" {
			chunks = append(chunks, c)
		}
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}
	return chunks, nil
}

func split(text string, size, overlap int, seps []string) []string {
	if len(text) <= size {
		return []string{text}
	}

	sep, rest := chooseSeparator(text, seps)
	if sep == "" {
		return hardCut(text, size, overlap)
	}

	parts := splitAfter(text, sep)

	var chunks []string
	var window []string
	winLen := 0

	flush := func() {
		if winLen > 0 {
			chunks = append(chunks, strings.Join(window, ""))
		}
	}

	for _, p := range parts {
		if len(p) > size {
			// A single part too large for any chunk: recurse with finer separators.
			flush()
			window, winLen = nil, 0
			chunks = append(chunks, split(p, size, overlap, rest)...)
			continue
		}

		if winLen+len(p) > size {
			flush()
			// Retain a tail of the window as overlap for the next chunk.
			for len(window) > 0 && (winLen > overlap || winLen+len(p) > size) {
				winLen -= len(window[0])
				window = window[1:]
			}
		}

		window = append(window, p)
		winLen += len(p)
	}
	flush()

	return chunks
}

func chooseSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" {
			return "", nil
		}
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}

// splitAfter splits text on sep, keeping the separator attached to the
// preceding piece so concatenation reconstructs the input.
func splitAfter(text, sep string) []string {
	var parts []string
	for {
		i := strings.Index(text, sep)
		if i < 0 {
			if text != "" {
				parts = append(parts, text)
			}
			return parts
		}
		parts = append(parts, text[:i+len(sep)])
		text = text[i+len(sep):]
	}
}

func hardCut(text string, size, overlap int) []string {
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
