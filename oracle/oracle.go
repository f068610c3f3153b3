// CLAUDE:SUMMARY Text-generation oracle contract: role-tagged messages in, generated text out, bounded timeout.
// Package oracle defines the contract with the external text-generation
// service used for intent classification and content modification. The
// pipeline never depends on a concrete provider, only on Client.
package oracle

import "context"

// Tier selects the model class for a request. Classification runs on the
// fast tier; content rewrites on the deep tier.
type Tier string

const (
	TierFast Tier = "fast"
	TierDeep Tier = "deep"
)

// Role tags a message in the request transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of the request transcript.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion request.
type Request struct {
	Tier        Tier
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSONOutput asks the service to return a JSON object. Callers must
	// still treat unparseable output as a recoverable error.
	JSONOutput bool
}

// Client generates text. Implementations must respect ctx cancellation and
// return promptly on timeout; callers apply their own documented fallbacks.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Client interface. Used by tests.
type Func func(ctx context.Context, req Request) (string, error)

// Complete implements Client.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
