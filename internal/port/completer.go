package port

import "context"

// Completer is the black-box text completion service used by capability
// agents.
type Completer interface {
	// Complete generates a response conditioned on a system prompt and a user
	// prompt.
	Complete(ctx context.Context, system, user string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
