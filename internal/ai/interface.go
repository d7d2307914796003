package ai

import (
	"context"
)

// Turn is one prior exchange handed to a provider as plain text.
type Turn struct {
	Role string
	Text string
}

// CompletionProvider fills trip fields the deterministic layers could not.
// This interface allows swapping providers (Gemini, OpenAI) behind one config knob.
type CompletionProvider interface {
	// ExtractTripFields reads the current utterance plus conversation history and
	// returns only fields the user actually stated. known carries fields already
	// resolved upstream so the model never re-answers them.
	ExtractTripFields(ctx context.Context, utterance string, turns []Turn, known map[string]string) (*FallbackFields, error)

	// IsAvailable reports whether the provider is configured and usable.
	IsAvailable() bool
}

// SummaryProvider condenses a conversation into a single line of context.
// The summary feeds confidence weighting only, never field extraction.
type SummaryProvider interface {
	SummarizeConversation(ctx context.Context, turns []Turn) (string, error)
}
