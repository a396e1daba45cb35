package completion

import (
	"context"
	"strings"
)

// TemplateCompleter is a deterministic offline completer. It does no
// generation: for grounded prompts it echoes the supplied context, otherwise
// it acknowledges the request. Useful for development and environments
// without a completion service.
type TemplateCompleter struct{}

func NewTemplateCompleter() *TemplateCompleter { return &TemplateCompleter{} }

func (t *TemplateCompleter) Complete(_ context.Context, system, user string) (string, error) {
	if idx := strings.Index(user, "Context:\n"); idx >= 0 {
		ctxText := user[idx+len("Context:\n"):]
		if cut := strings.Index(ctxText, "\n\nQuestion:"); cut >= 0 {
			ctxText = ctxText[:cut]
		}
		return "Based on the indexed documents:\n\n" + strings.TrimSpace(ctxText), nil
	}

	return "Request noted: " + strings.TrimSpace(user), nil
}

func (t *TemplateCompleter) ModelName() string { return "template" }
