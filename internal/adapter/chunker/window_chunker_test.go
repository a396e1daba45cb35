package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrag/internal/adapter/analyzer"
)

func TestWindowChunkerOffsets(t *testing.T) {
	c := NewWindowChunker(1000, 200, analyzer.NewTokenizer())

	text := strings.Repeat("a", 2400)
	chunks := c.Chunk("doc1", text)

	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 1000, chunks[0].End)
	assert.Equal(t, 800, chunks[1].Start)
	assert.Equal(t, 1800, chunks[1].End)
	assert.Equal(t, 1600, chunks[2].Start)
	assert.Equal(t, 2400, chunks[2].End)

	for i, ch := range chunks {
		assert.Equal(t, "doc1", ch.DocID)
		assert.Equal(t, i, ch.Seq)
		assert.NotEmpty(t, ch.ID)
		assert.Equal(t, ch.End-ch.Start, len([]rune(ch.Text)))
	}
}

func TestWindowChunkerShortText(t *testing.T) {
	c := NewWindowChunker(1000, 200, analyzer.NewTokenizer())

	chunks := c.Chunk("doc1", "hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 11, chunks[0].End)
	assert.Equal(t, "hello world", chunks[0].Text)
}

func TestWindowChunkerEmptyText(t *testing.T) {
	c := NewWindowChunker(1000, 200, analyzer.NewTokenizer())
	assert.Empty(t, c.Chunk("doc1", ""))
}

func TestWindowChunkerExactMultiple(t *testing.T) {
	c := NewWindowChunker(100, 20, analyzer.NewTokenizer())

	// 180 runes: [0,100) then [80,180), the second window ends the stream.
	chunks := c.Chunk("doc1", strings.Repeat("x", 180))
	require.Len(t, chunks, 2)
	assert.Equal(t, 80, chunks[1].Start)
	assert.Equal(t, 180, chunks[1].End)
}

func TestWindowChunkerRuneOffsets(t *testing.T) {
	c := NewWindowChunker(10, 2, analyzer.NewTokenizer())

	// Multi-byte runes still chunk on rune boundaries.
	text := strings.Repeat("日", 25)
	chunks := c.Chunk("doc1", text)
	require.Len(t, chunks, 3)
	assert.Equal(t, 16, chunks[2].Start)
	assert.Equal(t, 25, chunks[2].End)
	assert.Equal(t, strings.Repeat("日", 9), chunks[2].Text)
}

func TestWindowChunkerStableIDs(t *testing.T) {
	c := NewWindowChunker(1000, 200, analyzer.NewTokenizer())

	text := strings.Repeat("b", 2400)
	first := c.Chunk("doc1", text)
	second := c.Chunk("doc1", text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	other := c.Chunk("doc2", text)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestWindowChunkerInvalidParams(t *testing.T) {
	c := NewWindowChunker(0, -1, analyzer.NewTokenizer())

	chunks := c.Chunk("doc1", strings.Repeat("a", 2400))
	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, chunks[0].End)
}
