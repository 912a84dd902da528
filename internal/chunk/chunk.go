// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits document text into overlapping fixed-size windows
// for the extraction client.
package chunk

import "fmt"

// ConfigError reports invalid chunking parameters. It aborts a run before
// any processing starts.
type ConfigError struct {
	Size    int
	Overlap int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunking parameters: size=%d overlap=%d (need size > 0 and 0 <= overlap < size)", e.Size, e.Overlap)
}

// Chunk is one contiguous window of a document's text. Chunks are immutable
// and processed independently.
type Chunk struct {
	// Index is the zero-based position in the chunk sequence.
	Index int

	// Start is the character (rune) offset of the window in the source text.
	Start int

	// Text is the window content. The final chunk may be shorter than the
	// configured size.
	Text string
}

// Chunker produces the chunk sequence for one text lazily. Size and overlap
// count characters, not bytes, so windows never split a multi-byte rune.
// Boundaries depend only on (text, size, overlap): chunk i starts at
// i*(size-overlap) and spans at most size characters, clipped at the end of
// the text. That determinism is what makes re-processing a document
// idempotent.
type Chunker struct {
	runes   []rune
	size    int
	overlap int
	next    int // index of the next chunk to emit
}

// New validates the parameters and returns a Chunker positioned at the
// first chunk.
func New(text string, size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ConfigError{Size: size, Overlap: overlap}
	}
	return &Chunker{runes: []rune(text), size: size, overlap: overlap}, nil
}

// step is the distance between consecutive chunk starts.
func (c *Chunker) step() int {
	return c.size - c.overlap
}

// Next returns the next chunk in the sequence. ok is false once the text
// is exhausted. Empty text yields no chunks.
func (c *Chunker) Next() (Chunk, bool) {
	start := c.next * c.step()
	if start >= len(c.runes) {
		return Chunk{}, false
	}
	end := start + c.size
	if end > len(c.runes) {
		end = len(c.runes)
	}
	ch := Chunk{Index: c.next, Start: start, Text: string(c.runes[start:end])}
	c.next++
	return ch, true
}

// Reset restarts the sequence from the first chunk.
func (c *Chunker) Reset() {
	c.next = 0
}

// Count returns the total number of chunks the sequence will produce,
// without consuming it.
func (c *Chunker) Count() int {
	if len(c.runes) == 0 {
		return 0
	}
	// Ceiling division over chunk starts: the last start is the largest
	// multiple of step strictly below the character count.
	return (len(c.runes)-1)/c.step() + 1
}

// All materializes the full sequence. Provided for callers that want the
// chunk list up front; Reset leaves the Chunker reusable afterwards.
func (c *Chunker) All() []Chunk {
	c.Reset()
	var chunks []Chunk
	for {
		ch, ok := c.Next()
		if !ok {
			break
		}
		chunks = append(chunks, ch)
	}
	c.Reset()
	return chunks
}
