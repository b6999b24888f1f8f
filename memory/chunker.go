package memory

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize matches the original ingestion pipeline's window.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is carried between neighboring chunks so a fact
	// split by a window boundary survives in at least one chunk whole.
	DefaultChunkOverlap = 200
)

// Chunker splits document text into overlapping bounded-length chunks for
// indexing. Chunks have no identity of their own; each becomes a new record
// at ingestion time.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker returns a chunker with the default window and overlap.
func NewChunker() *Chunker {
	return &Chunker{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Split breaks text into chunks of at most Size characters with Overlap
// characters shared between neighbors. Cuts prefer paragraph breaks, then
// line breaks, then spaces, so facts stay intact where possible. Text that
// fits in one window is returned as a single chunk.
func (c *Chunker) Split(text string) []string {
	size := c.Size
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := findCut(text, start, end)
		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next++
		}
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut picks the best boundary at or before end, preferring the
// separators in order: paragraph break, line break, space. When the window
// contains none (separator-free text, e.g. CJK) it hard-cuts at the nearest
// rune boundary so chunks stay valid UTF-8.
func findCut(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(window, sep); i > 0 {
			return start + i + len(sep)
		}
	}

	cut := end
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == start {
		return end
	}
	return cut
}
