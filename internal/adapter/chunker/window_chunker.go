package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"agentrag/internal/adapter/analyzer"
	"agentrag/internal/domain"
)

// WindowChunker splits normalized text into fixed-size overlapping windows.
// Sizes are measured in runes of the normalized stream; offsets in the
// produced chunks are rune positions, [Start, End). The overlap guarantees no
// span crossing a window boundary is entirely lost to retrieval.
type WindowChunker struct {
	size      int
	overlap   int
	tokenizer *analyzer.Tokenizer
}

func NewWindowChunker(size, overlap int, tokenizer *analyzer.Tokenizer) *WindowChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &WindowChunker{
		size:      size,
		overlap:   overlap,
		tokenizer: tokenizer,
	}
}

// Chunk splits text into windows. 2400 runes at size 1000, overlap 200 yield
// [0,1000), [800,1800), [1600,2400).
func (c *WindowChunker) Chunk(docID, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk

	for start, seq := 0, 0; start < len(runes); start, seq = start+step, seq+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunkText := string(runes[start:end])
		chunks = append(chunks, domain.Chunk{
			ID:     chunkID(docID, start, end),
			DocID:  docID,
			Seq:    seq,
			Start:  start,
			End:    end,
			Text:   chunkText,
			Tokens: c.tokenizer.Tokenize(chunkText),
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

func chunkID(docID string, start, end int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d-%d", docID, start, end)))
	return hex.EncodeToString(sum[:8])
}
