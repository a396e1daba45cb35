package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// DocQAName is the Document Q&A agent's registry name.
const DocQAName = "document_qa"

const docQASystemPrompt = `You are a document question-answering assistant. Use the provided context from the tenant's documents as your primary source. Cite the source document for every claim you take from the context. If the context does not cover the question, say so instead of inventing an answer. Use the conversation history to resolve follow-up questions.`

var docReferencePattern = regexp.MustCompile(`\b(this|the)\s+(document|file|pdf|paper|report)\b`)

var (
	docKeywords = []string{
		"document", "pdf", "file", "text", "analyze", "summary", "summarize",
		"read", "content", "extract", "information", "doc", "paper", "report",
		"article", "research", "study", "findings",
	}
	docExplainPhrases = []string{"what does", "tell me about", "explain"}
	followupPhrases   = []string{
		"more details", "tell me more", "elaborate", "expand on", "what about",
		"what else", "any other", "continue", "go on",
	}
)

// DocQA answers questions grounded in the tenant's document corpus. Empty
// retrieval on a message that needs grounding is reported as a recoverable
// failure so the router can reroute once.
type DocQA struct {
	retriever port.Retriever
	completer port.Completer
	topK      int
	logger    *zap.Logger
}

func NewDocQA(retriever port.Retriever, completer port.Completer, topK int, logger *zap.Logger) *DocQA {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocQA{retriever: retriever, completer: completer, topK: topK, logger: logger}
}

func (a *DocQA) Name() string { return DocQAName }

func (a *DocQA) Description() string {
	return "Answers questions about uploaded documents using retrieval-grounded generation"
}

// CanHandle scores by document vocabulary density plus a continuity boost
// when the previous turns were document-grounded.
func (a *DocQA) CanHandle(message string, conv domain.Conversation) float64 {
	lower := strings.ToLower(message)

	matches := 0
	for _, kw := range docKeywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	confidence := float64(matches) * 0.2
	if confidence > 0.8 {
		confidence = 0.8
	}

	if containsAny(lower, docExplainPhrases) {
		confidence += 0.1
	}
	if docReferencePattern.MatchString(lower) {
		confidence += 0.2
	}

	if conv.LastAgent() == DocQAName {
		if containsAny(lower, followupPhrases) {
			confidence += 0.3
		} else if containsAny(lower, []string{" it", " that", " them", " those"}) {
			confidence += 0.2
		}
	}

	if confidence < 0.1 {
		confidence = 0.1
	}
	return clamp01(confidence)
}

func (a *DocQA) Process(ctx context.Context, tenant, message string, conv domain.Conversation) (domain.Result, error) {
	chunks, err := a.retriever.Retrieve(ctx, tenant, message, a.topK)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return domain.Result{
				Text:     "The document search backend is temporarily unavailable, so I cannot ground an answer in your documents right now. Please retry shortly.",
				Agent:    DocQAName,
				Degraded: true,
				Payload:  map[string]string{"reason": "embedding_unavailable"},
			}, nil
		}
		return domain.Result{}, fmt.Errorf("retrieve: %w", err)
	}

	if len(chunks) == 0 {
		return domain.Result{}, domain.Recoverable(DocQAName, "no relevant documents found for this tenant", nil)
	}

	contextText, citations := buildContext(chunks)
	prompt := buildDocQAPrompt(message, contextText, conv)

	answer, err := a.completer.Complete(ctx, docQASystemPrompt, prompt)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionUnavailable) {
			// Extractive fallback: quote the best-matching passage.
			a.logger.Warn("completion unavailable, returning extractive answer", zap.String("tenant", tenant))
			return domain.Result{
				Text:      "The answer service is unavailable, so here is the most relevant passage from your documents:\n\n" + chunks[0].Chunk.Text,
				Agent:     DocQAName,
				Citations: citations[:1],
				Degraded:  true,
				Payload:   map[string]string{"reason": "completion_unavailable"},
			}, nil
		}
		return domain.Result{}, fmt.Errorf("complete: %w", err)
	}

	return domain.Result{
		Text:      answer,
		Agent:     DocQAName,
		Citations: citations,
		Payload:   map[string]string{"type": "document_qa", "chunks_retrieved": fmt.Sprintf("%d", len(chunks))},
	}, nil
}

// buildContext renders retrieved chunks as source-labelled blocks and derives
// citations from exactly the chunks that were returned.
func buildContext(chunks []domain.ScoredChunk) (string, []domain.Citation) {
	var blocks []string
	citations := make([]domain.Citation, 0, len(chunks))

	for i, sc := range chunks {
		header := fmt.Sprintf("[Source %d: %s (chars %d-%d)]", i+1, sc.Doc.Name, sc.Chunk.Start, sc.Chunk.End)
		blocks = append(blocks, header+"\n"+sc.Chunk.Text)
		citations = append(citations, domain.Citation{
			DocID:   sc.Doc.ID,
			DocName: sc.Doc.Name,
			ChunkID: sc.Chunk.ID,
			Start:   sc.Chunk.Start,
			End:     sc.Chunk.End,
			Score:   sc.Score,
		})
	}

	return strings.Join(blocks, "\n\n---\n\n"), citations
}

func buildDocQAPrompt(message, contextText string, conv domain.Conversation) string {
	var b strings.Builder

	if len(conv.Turns) > 0 {
		b.WriteString("Conversation history:\n")
		start := len(conv.Turns) - 4
		if start < 0 {
			start = 0
		}
		for _, turn := range conv.Turns[start:] {
			b.WriteString("user: " + turn.UserMessage + "\n")
			b.WriteString("assistant: " + turn.Response + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(message)
	return b.String()
}
