package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrag/internal/domain"
)

type fakeRetriever struct {
	chunks []domain.ScoredChunk
	err    error
}

func (f *fakeRetriever) Retrieve(_ context.Context, tenant, query string, k int) ([]domain.ScoredChunk, error) {
	return f.chunks, f.err
}

type fakeCompleter struct {
	answer string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.prompt = user
	return f.answer, f.err
}

func (f *fakeCompleter) ModelName() string { return "fake" }

func scoredChunk(docID, docName, chunkID, text string, start, end int, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{ID: chunkID, DocID: docID, Start: start, End: end, Text: text},
		Doc:   domain.Document{ID: docID, Name: docName, UploadedAt: time.Now()},
		Score: score,
	}
}

func TestDocQACanHandle(t *testing.T) {
	a := NewDocQA(&fakeRetriever{}, &fakeCompleter{}, 5, nil)

	assert.GreaterOrEqual(t, a.CanHandle("summarize the document findings", domain.Conversation{}), 0.5)
	assert.InDelta(t, 0.1, a.CanHandle("turn the lights on", domain.Conversation{}), 1e-9)
}

func TestDocQAContinuityBoost(t *testing.T) {
	a := NewDocQA(&fakeRetriever{}, &fakeCompleter{}, 5, nil)

	conv := domain.Conversation{Turns: []domain.Turn{{Agent: DocQAName}}}
	followup := a.CanHandle("tell me more", conv)
	cold := a.CanHandle("tell me more", domain.Conversation{})
	assert.Greater(t, followup, cold)

	otherConv := domain.Conversation{Turns: []domain.Turn{{Agent: "api_execution"}}}
	assert.Equal(t, cold, a.CanHandle("tell me more", otherConv))
}

func TestDocQAProcessCitesRetrievedChunks(t *testing.T) {
	retr := &fakeRetriever{chunks: []domain.ScoredChunk{
		scoredChunk("d1", "policy.txt", "c1", "refunds within 30 days", 0, 23, 0.9),
		scoredChunk("d2", "faq.md", "c2", "contact support first", 100, 121, 0.6),
	}}
	comp := &fakeCompleter{answer: "Refunds are accepted within 30 days."}

	a := NewDocQA(retr, comp, 5, nil)
	result, err := a.Process(context.Background(), "acme", "what is the refund policy?", domain.Conversation{})
	require.NoError(t, err)

	assert.Equal(t, DocQAName, result.Agent)
	assert.False(t, result.Degraded)
	require.Len(t, result.Citations, 2)
	assert.Equal(t, "policy.txt", result.Citations[0].DocName)
	assert.Equal(t, "c1", result.Citations[0].ChunkID)
	assert.Equal(t, 0, result.Citations[0].Start)
	assert.Equal(t, 23, result.Citations[0].End)

	// Context blocks carry source headers and reach the completer.
	assert.Contains(t, comp.prompt, "[Source 1: policy.txt (chars 0-23)]")
	assert.Contains(t, comp.prompt, "[Source 2: faq.md (chars 100-121)]")
	assert.Contains(t, comp.prompt, "refunds within 30 days")
}

func TestDocQAEmptyRetrievalIsRecoverable(t *testing.T) {
	a := NewDocQA(&fakeRetriever{}, &fakeCompleter{}, 5, nil)

	_, err := a.Process(context.Background(), "acme", "what does the report say?", domain.Conversation{})
	require.Error(t, err)
	assert.True(t, domain.IsRecoverable(err))
}

func TestDocQAEmbeddingUnavailableDegrades(t *testing.T) {
	retr := &fakeRetriever{err: domain.ErrEmbeddingUnavailable}
	a := NewDocQA(retr, &fakeCompleter{}, 5, nil)

	result, err := a.Process(context.Background(), "acme", "summarize the report", domain.Conversation{})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, "embedding_unavailable", result.Payload["reason"])
}

func TestDocQACompletionUnavailableFallsBackToExtract(t *testing.T) {
	retr := &fakeRetriever{chunks: []domain.ScoredChunk{
		scoredChunk("d1", "policy.txt", "c1", "refunds within 30 days", 0, 23, 0.9),
		scoredChunk("d2", "faq.md", "c2", "contact support first", 100, 121, 0.6),
	}}
	comp := &fakeCompleter{err: domain.ErrCompletionUnavailable}

	a := NewDocQA(retr, comp, 5, nil)
	result, err := a.Process(context.Background(), "acme", "refund policy?", domain.Conversation{})
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Contains(t, result.Text, "refunds within 30 days")
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "c1", result.Citations[0].ChunkID)
}

func TestDocQAUnexpectedErrorPropagates(t *testing.T) {
	retr := &fakeRetriever{err: errors.New("disk on fire")}
	a := NewDocQA(retr, &fakeCompleter{}, 5, nil)

	_, err := a.Process(context.Background(), "acme", "summarize the report", domain.Conversation{})
	require.Error(t, err)
	assert.False(t, domain.IsRecoverable(err))
}
