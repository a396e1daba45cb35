package port

import (
	"context"

	"agentrag/internal/domain"
)

// Agent is a capability handler. Agents are stateless between turns; the only
// state threaded through is the conversation itself.
type Agent interface {
	Name() string

	Description() string

	// CanHandle scores in [0,1] whether this agent can service the message.
	CanHandle(message string, conv domain.Conversation) float64

	// Process handles the message. A *domain.RecoverableError return lets the
	// router attempt one reroute; any other error is terminal for the turn.
	Process(ctx context.Context, tenant, message string, conv domain.Conversation) (domain.Result, error)
}
