// Package router maps each user message to exactly one capability agent
// invocation with deterministic, auditable fallback.
package router

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"agentrag/internal/agent"
	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// State is the per-turn routing state. Every turn starts at Idle and ends at
// Completed or Failed; nothing persists across turns except the conversation
// history, which only influences the continuity tie-break.
type State int

const (
	StateIdle State = iota
	StateClassifying
	StateDispatched
	StateRerouting
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifying:
		return "classifying"
	case StateDispatched:
		return "dispatched"
	case StateRerouting:
		return "rerouting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const cannotFulfillText = "I could not fulfill this request: the selected capability failed and no alternative handler could take over. Please rephrase or try again later."

// Router selects the highest-scoring agent above the acceptance threshold,
// breaking near-ties (within epsilon) first by continuity with the previous
// turn's agent, then by static registry priority. A recoverable agent
// failure triggers at most one reroute to the next-highest-scoring agent.
type Router struct {
	registry  *agent.Registry
	fallback  port.Agent
	threshold float64
	epsilon   float64
	logger    *zap.Logger
}

func New(registry *agent.Registry, fallback port.Agent, threshold, epsilon float64, logger *zap.Logger) *Router {
	if threshold <= 0 {
		threshold = 0.5
	}
	if epsilon <= 0 {
		epsilon = 0.01
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		registry:  registry,
		fallback:  fallback,
		threshold: threshold,
		epsilon:   epsilon,
		logger:    logger,
	}
}

// turn tracks one pass through the state machine.
type turn struct {
	state  State
	trace  []State
	logger *zap.Logger
}

func (t *turn) to(next State) {
	t.logger.Debug("routing state", zap.Stringer("from", t.state), zap.Stringer("to", next))
	t.state = next
	t.trace = append(t.trace, next)
}

// Route processes one turn. Conversational failures come back as a
// well-formed Result; only fatal classes (tenant halt, index corruption) and
// unexpected internal errors return a non-nil error.
func (r *Router) Route(ctx context.Context, tenant, message string, conv domain.Conversation) (domain.Result, domain.RoutingDecision, error) {
	t := &turn{state: StateIdle, logger: r.logger}

	t.to(StateClassifying)
	scores := make(map[string]float64, len(r.registry.All()))
	for _, a := range r.registry.All() {
		scores[a.Name()] = a.CanHandle(message, conv)
	}

	chosen, confidence := r.selectAgent(scores, conv.LastAgent())
	decision := domain.RoutingDecision{
		Confidence: confidence,
		Scores:     scores,
	}

	if confidence < r.threshold {
		// No agent clears the threshold: route to the default handler. This
		// is ClassificationAmbiguous, not an error to the caller.
		decision.Ambiguous = true
		chosen = r.fallback
		r.logger.Debug("classification ambiguous, using fallback",
			zap.String("tenant", tenant),
			zap.Float64("best_score", confidence))
	}
	decision.Intent = chosen.Name()
	decision.Agent = chosen.Name()

	t.to(StateDispatched)
	decision.Attempted = append(decision.Attempted, chosen.Name())
	result, err := chosen.Process(ctx, tenant, message, conv)
	if err == nil {
		t.to(StateCompleted)
		return r.finish(result, chosen, decision), decision, nil
	}
	if fatal(err) {
		return domain.Result{}, decision, err
	}
	if !domain.IsRecoverable(err) {
		r.logger.Error("agent failed", zap.String("agent", chosen.Name()), zap.Error(err))
		t.to(StateFailed)
		return r.terminal(decision), decision, nil
	}

	// Exactly one reroute to the next-highest-scoring agent, then terminal.
	t.to(StateRerouting)
	r.logger.Info("agent reported recoverable failure, rerouting",
		zap.String("tenant", tenant),
		zap.String("agent", chosen.Name()),
		zap.Error(err))

	next := r.nextBest(scores, chosen.Name())
	if next == nil {
		t.to(StateFailed)
		return r.terminal(decision), decision, nil
	}

	t.to(StateDispatched)
	decision.Agent = next.Name()
	decision.Attempted = append(decision.Attempted, next.Name())
	result, err = next.Process(ctx, tenant, message, conv)
	if err == nil {
		t.to(StateCompleted)
		return r.finish(result, next, decision), decision, nil
	}
	if fatal(err) {
		return domain.Result{}, decision, err
	}

	t.to(StateFailed)
	r.logger.Warn("reroute target also failed",
		zap.String("agent", next.Name()),
		zap.Error(err))
	return r.terminal(decision), decision, nil
}

// selectAgent returns the winning agent and its score. All agents within
// epsilon of the best are tie candidates; the previous turn's agent wins a
// tie, then registry priority order decides. When the best score clears the
// acceptance threshold, sub-threshold agents cannot win the tie: continuity
// never demotes a clearing classification to the fallback.
func (r *Router) selectAgent(scores map[string]float64, previousAgent string) (port.Agent, float64) {
	best := 0.0
	for _, a := range r.registry.All() {
		if s := scores[a.Name()]; s > best {
			best = s
		}
	}

	var winner port.Agent
	for _, a := range r.registry.All() {
		if best-scores[a.Name()] > r.epsilon {
			continue
		}
		if best >= r.threshold && scores[a.Name()] < r.threshold {
			continue
		}
		if a.Name() == previousAgent {
			return a, scores[a.Name()]
		}
		if winner == nil {
			winner = a
		}
	}
	if winner == nil {
		winner = r.fallback
	}
	return winner, scores[winner.Name()]
}

// nextBest returns the highest-scoring agent other than exclude that still
// clears the threshold, else the fallback. Returns nil when the failed agent
// was already the fallback.
func (r *Router) nextBest(scores map[string]float64, exclude string) port.Agent {
	var next port.Agent
	best := 0.0
	for _, a := range r.registry.All() {
		if a.Name() == exclude {
			continue
		}
		if s := scores[a.Name()]; s > best {
			best = s
			next = a
		}
	}

	if next != nil && best >= r.threshold {
		return next
	}
	if exclude == r.fallback.Name() {
		return nil
	}
	return r.fallback
}

func (r *Router) finish(result domain.Result, a port.Agent, decision domain.RoutingDecision) domain.Result {
	if result.Agent == "" {
		result.Agent = a.Name()
	}
	if decision.Ambiguous {
		if result.Payload == nil {
			result.Payload = make(map[string]string)
		}
		result.Payload["reason"] = "classification_ambiguous"
	}
	r.logger.Debug("turn completed",
		zap.String("agent", decision.Agent),
		zap.Float64("confidence", decision.Confidence),
		zap.Bool("ambiguous", decision.Ambiguous),
		zap.Bool("degraded", result.Degraded))
	return result
}

func (r *Router) terminal(decision domain.RoutingDecision) domain.Result {
	return domain.Result{
		Text:     cannotFulfillText,
		Agent:    decision.Agent,
		Degraded: true,
		Payload: map[string]string{
			"reason":    "exhausted_fallback",
			"attempted": strings.Join(decision.Attempted, ","),
		},
	}
}

func fatal(err error) bool {
	return errors.Is(err, domain.ErrIndexCorruption) || errors.Is(err, domain.ErrTenantHalted)
}
