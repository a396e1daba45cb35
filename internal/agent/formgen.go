package agent

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// FormGenName is the form generation agent's registry name.
const FormGenName = "form_generation"

const formGenSystemPrompt = `You are a form generation assistant. Design form schemas from user descriptions: field names, input types, validation rules and layout. Output a clear field list the user can implement against; external form renderers and schema stores are outside your scope.`

var (
	formHighKeywords = []string{
		"form", "create form", "generate form", "form builder", "input field",
		"form validation", "form schema", "contact form", "registration form",
		"survey form", "feedback form",
	}
	formMediumKeywords = []string{
		"field", "input", "validation", "schema", "template",
		"checkbox", "radio button", "dropdown", "text field", "submit",
	}
	frontendPattern = regexp.MustCompile(`\b(html|css|javascript|react|vue|angular)\b`)
)

// FormGen designs form schemas; the renderer is an external collaborator.
type FormGen struct {
	completer port.Completer
}

func NewFormGen(completer port.Completer) *FormGen {
	return &FormGen{completer: completer}
}

func (a *FormGen) Name() string { return FormGenName }

func (a *FormGen) Description() string {
	return "Generates form schemas, fields and validation rules"
}

func (a *FormGen) CanHandle(message string, _ domain.Conversation) float64 {
	lower := strings.ToLower(message)
	if frontendPattern.MatchString(lower) && !containsAny(lower, formHighKeywords) && !containsAny(lower, formMediumKeywords) {
		return 0.7
	}
	return keywordConfidence(message, formHighKeywords, formMediumKeywords, 0.1)
}

func (a *FormGen) Process(ctx context.Context, _, message string, _ domain.Conversation) (domain.Result, error) {
	answer, err := a.completer.Complete(ctx, formGenSystemPrompt, message)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionUnavailable) {
			return degradedCompletion(FormGenName), nil
		}
		return domain.Result{}, err
	}

	return domain.Result{
		Text:    answer,
		Agent:   FormGenName,
		Payload: map[string]string{"type": "form_generation"},
	}, nil
}
