package agent

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// APIExecName is the API execution agent's registry name.
const APIExecName = "api_execution"

const apiExecSystemPrompt = `You are an API execution assistant. Help the user call external services: explain endpoints, format requests and responses, handle authentication and error scenarios, and suggest suitable APIs for a task. Guide the user to obtain credentials securely; never ask them to paste secrets into the chat.`

var (
	apiHighKeywords = []string{
		"api", "endpoint", "rest", "graphql", "webhook", "http request",
		"post request", "get request", "put request", "delete request",
		"api call", "integration", "third party", "external service",
	}
	apiMediumKeywords = []string{
		"request", "response", "authentication", "auth",
		"token", "connect", "fetch data", "send data",
	}
	urlPattern     = regexp.MustCompile(`https?://`)
	apiToolPattern = regexp.MustCompile(`\b(json|xml|curl|postman)\b`)
)

// APIExec handles API call and integration requests. The external services
// themselves are collaborators outside this core; only the dispatch contract
// lives here.
type APIExec struct {
	completer port.Completer
}

func NewAPIExec(completer port.Completer) *APIExec {
	return &APIExec{completer: completer}
}

func (a *APIExec) Name() string { return APIExecName }

func (a *APIExec) Description() string {
	return "Handles API calls, integrations and external service requests"
}

func (a *APIExec) CanHandle(message string, _ domain.Conversation) float64 {
	lower := strings.ToLower(message)
	if urlPattern.MatchString(lower) && !containsAny(lower, apiHighKeywords) {
		return 0.8
	}
	if apiToolPattern.MatchString(lower) && !containsAny(lower, apiHighKeywords) {
		return 0.7
	}
	return keywordConfidence(message, apiHighKeywords, apiMediumKeywords, 0.1)
}

func (a *APIExec) Process(ctx context.Context, _, message string, _ domain.Conversation) (domain.Result, error) {
	answer, err := a.completer.Complete(ctx, apiExecSystemPrompt, message)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionUnavailable) {
			return degradedCompletion(APIExecName), nil
		}
		return domain.Result{}, err
	}

	return domain.Result{
		Text:    answer,
		Agent:   APIExecName,
		Payload: map[string]string{"type": "api_execution"},
	}, nil
}

// degradedCompletion is the shared well-formed answer for completion outages.
func degradedCompletion(agent string) domain.Result {
	return domain.Result{
		Text:     "The answer service is temporarily unavailable. Your request was understood but cannot be answered right now; please retry shortly.",
		Agent:    agent,
		Degraded: true,
		Payload:  map[string]string{"reason": "completion_unavailable"},
	}
}
