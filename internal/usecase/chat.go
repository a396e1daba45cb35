package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentrag/internal/domain"
	"agentrag/internal/port"
	"agentrag/internal/router"
)

// Chat processes conversation turns: each message runs the full
// classify → dispatch → respond sequence and the turn is appended to the
// persisted conversation. A single turn is sequential end-to-end; separate
// conversations and tenants proceed concurrently.
type Chat struct {
	store  port.Store
	router *router.Router
	logger *zap.Logger
}

func NewChat(store port.Store, r *router.Router, logger *zap.Logger) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{store: store, router: r, logger: logger}
}

// Message handles one turn. An empty conversationID starts a new
// conversation; the (possibly new) conversation is returned with the turn
// appended.
func (c *Chat) Message(ctx context.Context, tenant, conversationID, message string) (domain.Result, domain.Conversation, error) {
	conv, err := c.loadOrCreate(tenant, conversationID)
	if err != nil {
		return domain.Result{}, domain.Conversation{}, err
	}

	result, decision, err := c.router.Route(ctx, tenant, message, conv)
	if err != nil {
		return domain.Result{}, conv, fmt.Errorf("route turn: %w", err)
	}

	conv.Turns = append(conv.Turns, domain.Turn{
		UserMessage: message,
		Agent:       result.Agent,
		Response:    result.Text,
		Citations:   result.Citations,
		Decision:    decision,
		At:          time.Now(),
	})

	if err := c.store.PutConversation(conv); err != nil {
		// The user already has an answer; a persistence failure only costs
		// continuity bias on the next turn.
		c.logger.Error("failed to persist conversation",
			zap.String("tenant", tenant),
			zap.String("conversation", conv.ID),
			zap.Error(err))
	}

	return result, conv, nil
}

func (c *Chat) loadOrCreate(tenant, conversationID string) (domain.Conversation, error) {
	if conversationID == "" {
		return domain.Conversation{ID: uuid.NewString(), TenantID: tenant}, nil
	}

	conv, err := c.store.GetConversation(tenant, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return domain.Conversation{ID: conversationID, TenantID: tenant}, nil
		}
		return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}
