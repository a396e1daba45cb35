package agent

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// AnalyticsName is the analytics agent's registry name.
const AnalyticsName = "analytics"

const analyticsSystemPrompt = `You are an analytics assistant. Analyze data the user describes, explain trends and patterns, suggest suitable metrics and visualizations, and call out data-quality caveats. Dashboards and charting tools are external; describe what to build, not how to render it.`

var (
	analyticsHighKeywords = []string{
		"analytics", "analysis", "analyze", "statistics",
		"dashboard", "chart", "graph", "visualization", "metrics",
		"kpi", "trend", "pattern",
	}
	analyticsMediumKeywords = []string{
		"numbers", "calculate", "measure", "compare", "insight",
		"overview", "breakdown", "distribution", "correlation",
	}
	statsPattern = regexp.MustCompile(`\b(average|mean|median|sum|count|percentage)\b`)
)

// Analytics handles data analysis and reporting queries.
type Analytics struct {
	completer port.Completer
}

func NewAnalytics(completer port.Completer) *Analytics {
	return &Analytics{completer: completer}
}

func (a *Analytics) Name() string { return AnalyticsName }

func (a *Analytics) Description() string {
	return "Handles data analysis, reporting and analytics queries"
}

func (a *Analytics) CanHandle(message string, _ domain.Conversation) float64 {
	lower := strings.ToLower(message)
	if statsPattern.MatchString(lower) && !containsAny(lower, analyticsHighKeywords) {
		return 0.8
	}
	return keywordConfidence(message, analyticsHighKeywords, analyticsMediumKeywords, 0.1)
}

func (a *Analytics) Process(ctx context.Context, _, message string, _ domain.Conversation) (domain.Result, error) {
	answer, err := a.completer.Complete(ctx, analyticsSystemPrompt, message)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionUnavailable) {
			return degradedCompletion(AnalyticsName), nil
		}
		return domain.Result{}, err
	}

	return domain.Result{
		Text:    answer,
		Agent:   AnalyticsName,
		Payload: map[string]string{"type": "analytics"},
	}, nil
}
