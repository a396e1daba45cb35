package agent

import (
	"context"
	"errors"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// GeneralName is the default conversational handler's registry name.
const GeneralName = "general"

const generalSystemPrompt = `You are a helpful assistant. The user's request did not match any specialized capability, so answer generally. If a specialized capability (document Q&A, API integration, form design, analytics) would fit better, suggest how the user could rephrase.`

// General is the designated fallback when no specialized agent clears the
// acceptance threshold. It never refuses a turn.
type General struct {
	completer port.Completer
}

func NewGeneral(completer port.Completer) *General {
	return &General{completer: completer}
}

func (a *General) Name() string { return GeneralName }

func (a *General) Description() string {
	return "General conversational handler used when no specialized agent applies"
}

// CanHandle is nominal; the router selects this agent explicitly, not by
// score.
func (a *General) CanHandle(string, domain.Conversation) float64 { return 0.1 }

func (a *General) Process(ctx context.Context, _, message string, _ domain.Conversation) (domain.Result, error) {
	answer, err := a.completer.Complete(ctx, generalSystemPrompt, message)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionUnavailable) {
			return degradedCompletion(GeneralName), nil
		}
		return domain.Result{}, err
	}

	return domain.Result{
		Text:    answer,
		Agent:   GeneralName,
		Payload: map[string]string{"type": "general_fallback"},
	}, nil
}
