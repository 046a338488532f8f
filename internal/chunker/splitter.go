package chunker

import (
	"fmt"

	"medassist/internal/domain"
)

// Splitter cuts text into fixed-size overlapping windows. Splitting is
// purely positional: no whitespace or sentence awareness, so the same input
// always yields the same chunk sequence.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter validates the window parameters up front; an overlap that is
// negative or not smaller than the chunk size would make the scan loop
// forever or walk backwards.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, &domain.ConfigurationError{
			Field:  "chunk_size",
			Reason: fmt.Sprintf("must be positive, got %d", chunkSize),
		}
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, &domain.ConfigurationError{
			Field:  "overlap",
			Reason: fmt.Sprintf("must be in [0, chunk_size), got %d with chunk_size %d", overlap, chunkSize),
		}
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split emits the window [start, start+chunkSize) and advances start by
// chunkSize-overlap until start passes the end of the text. The final chunk
// may be shorter than chunkSize. Offsets are in runes so multi-byte text is
// never cut mid-character.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	step := s.chunkSize - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Chunks pairs each emitted window with its 0-based ordinal and the
// document's logical name.
func (s *Splitter) Chunks(source, text string) []domain.Chunk {
	pieces := s.Split(text)
	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{Text: p, Source: source, Index: i}
	}
	return chunks
}
