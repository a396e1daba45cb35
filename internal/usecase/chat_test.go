package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrag/internal/adapter/completion"
	"agentrag/internal/adapter/store"
	"agentrag/internal/agent"
	"agentrag/internal/domain"
	"agentrag/internal/port"
	"agentrag/internal/router"
)

// staticAgent answers every message with a fixed score and text.
type staticAgent struct {
	name  string
	score float64
}

func (s *staticAgent) Name() string        { return s.name }
func (s *staticAgent) Description() string { return s.name }

func (s *staticAgent) CanHandle(string, domain.Conversation) float64 { return s.score }

func (s *staticAgent) Process(_ context.Context, _, message string, _ domain.Conversation) (domain.Result, error) {
	return domain.Result{Text: "answer to: " + message, Agent: s.name}, nil
}

func newChatFixture(t *testing.T) (*Chat, *store.BoltStore) {
	t.Helper()

	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := agent.NewRegistry(&staticAgent{name: "document_qa", score: 0.8})
	fallback := agent.NewGeneral(completion.NewTemplateCompleter())
	rt := router.New(reg, fallback, 0.5, 0.01, nil)

	return NewChat(s, rt, nil), s
}

func TestChatCreatesConversation(t *testing.T) {
	chat, s := newChatFixture(t)

	result, conv, err := chat.Message(context.Background(), "acme", "", "what does the doc say?")
	require.NoError(t, err)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "acme", conv.TenantID)
	assert.Equal(t, "document_qa", result.Agent)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "what does the doc say?", conv.Turns[0].UserMessage)
	assert.Equal(t, "document_qa", conv.Turns[0].Decision.Agent)

	// The turn is persisted.
	stored, err := s.GetConversation("acme", conv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Turns, 1)
}

func TestChatContinuesConversation(t *testing.T) {
	chat, _ := newChatFixture(t)

	_, conv, err := chat.Message(context.Background(), "acme", "", "first message")
	require.NoError(t, err)

	_, conv2, err := chat.Message(context.Background(), "acme", conv.ID, "second message")
	require.NoError(t, err)

	assert.Equal(t, conv.ID, conv2.ID)
	require.Len(t, conv2.Turns, 2)
	assert.Equal(t, "second message", conv2.Turns[1].UserMessage)
	assert.Equal(t, "document_qa", conv2.LastAgent())
}

func TestChatUnknownConversationIDStartsFresh(t *testing.T) {
	chat, _ := newChatFixture(t)

	_, conv, err := chat.Message(context.Background(), "acme", "never-seen", "hello document")
	require.NoError(t, err)
	assert.Equal(t, "never-seen", conv.ID)
	assert.Len(t, conv.Turns, 1)
}

var _ port.Agent = (*staticAgent)(nil)
