// Package chunker splits lesson text into overlapping word windows.
package chunker

import (
	"fmt"
	"iter"
	"strings"
)

const (
	DefaultWindow  = 1000
	DefaultOverlap = 200

	// charsPerWord converts character budgets into word counts.
	charsPerWord = 4
)

type Chunk struct {
	SourceID string
	Index    int
	// StartWord is the offset of the first word of the chunk in the source.
	StartWord int
	Text      string
}

// ConfigError reports a window/overlap pair that cannot produce progress.
type ConfigError struct {
	Window  int
	Overlap int
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chunker: invalid window=%d overlap=%d: %s", e.Window, e.Overlap, e.Reason)
}

// Split returns a lazy sequence of chunks. The window spans window/4 words and
// advances (window-overlap)/4 words, so consecutive chunks share overlap/4 words.
// Invalid parameters fail before any iteration happens.
func Split(sourceID, text string, window, overlap int) (iter.Seq[Chunk], error) {
	span, step, err := geometry(window, overlap)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(text)
	return func(yield func(Chunk) bool) {
		for i, start := 0, 0; start < len(words); i, start = i+1, start+step {
			end := min(start+span, len(words))
			c := Chunk{
				SourceID:  sourceID,
				Index:     i,
				StartWord: start,
				Text:      strings.Join(words[start:end], " "),
			}
			if !yield(c) {
				return
			}
		}
	}, nil
}

// Collect materializes Split.
func Collect(sourceID, text string, window, overlap int) ([]Chunk, error) {
	seq, err := Split(sourceID, text, window, overlap)
	if err != nil {
		return nil, err
	}
	var out []Chunk
	for c := range seq {
		out = append(out, c)
	}
	return out, nil
}

func geometry(window, overlap int) (span, step int, err error) {
	switch {
	case overlap < 0:
		return 0, 0, &ConfigError{Window: window, Overlap: overlap, Reason: "overlap must not be negative"}
	case overlap >= window:
		return 0, 0, &ConfigError{Window: window, Overlap: overlap, Reason: "overlap must be smaller than window"}
	}
	span = window / charsPerWord
	step = (window - overlap) / charsPerWord
	if span <= 0 {
		return 0, 0, &ConfigError{Window: window, Overlap: overlap, Reason: "window too small"}
	}
	if step <= 0 {
		return 0, 0, &ConfigError{Window: window, Overlap: overlap, Reason: "window and overlap too close"}
	}
	return span, step, nil
}
