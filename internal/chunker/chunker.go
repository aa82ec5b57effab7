// Package chunker splits oversized user input into overlapping windows.
package chunker

import (
	"errors"
	"fmt"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
)

const (
	// DefaultChunkSize is the window length in runes
	DefaultChunkSize = 2000

	// DefaultOverlap is the number of runes shared by consecutive windows
	DefaultOverlap = 200
)

// ErrInvalidWindow is returned when the window parameters would never advance
var ErrInvalidWindow = errors.New("invalid chunk window")

// Validate checks that a window of chunkSize runes advancing by
// chunkSize-overlap always makes progress.
func Validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidWindow, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidWindow, chunkSize, overlap)
	}
	return nil
}

// SplitDefault splits text with DefaultChunkSize and DefaultOverlap
func SplitDefault(text string) []chat.Chunk {
	chunks, _ := Split(text, DefaultChunkSize, DefaultOverlap)
	return chunks
}

// Split partitions text into windows of at most chunkSize runes. Positions
// are rune offsets so multi-byte characters are never cut in half.
func Split(text string, chunkSize, overlap int) ([]chat.Chunk, error) {
	if err := Validate(chunkSize, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []chat.Chunk{{
			Text:          text,
			Index:         0,
			TotalChunks:   1,
			StartPosition: 0,
			EndPosition:   len(runes),
			IsLast:        true,
		}}, nil
	}

	step := chunkSize - overlap
	var chunks []chat.Chunk
	for start := 0; ; start += step {
		end := min(start+chunkSize, len(runes))
		last := end >= len(runes)

		chunks = append(chunks, chat.Chunk{
			Text:          string(runes[start:end]),
			Index:         len(chunks),
			StartPosition: start,
			EndPosition:   end,
			IsLast:        last,
		})

		if last {
			break
		}
	}

	// Stamp the total only once the full sequence is known
	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}

	return chunks, nil
}
