// README: optional layer that scores multi-turn conversational coherence.
package seqcontext

import (
	"context"
	"fmt"
	"strings"

	"tripflow/internal/ai"
)

const (
	// minUserTurns below which there is no sequence worth modeling.
	minUserTurns = 2

	baseConfidence = 0.3
	perTurnBoost   = 0.1
	maxConfidence  = 0.8
)

// Signal is this layer's whole contribution: a one-line reading of the
// conversation and how much weight it deserves. It never carries fields.
type Signal struct {
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// Model summarizes a conversation through a SummaryProvider. The summary
// feeds overall confidence weighting only.
type Model struct {
	provider ai.SummaryProvider
}

// NewModel wraps a summary provider. A nil provider yields a model that
// reports itself unavailable.
func NewModel(provider ai.SummaryProvider) *Model {
	return &Model{provider: provider}
}

// IsAvailable reports whether a summarizer is configured.
func (m *Model) IsAvailable() bool {
	return m != nil && m.provider != nil
}

// Evaluate produces a signal for the conversation so far, or nil when the
// conversation is too short to carry sequence information.
func (m *Model) Evaluate(ctx context.Context, turns []ai.Turn) (*Signal, error) {
	if !m.IsAvailable() {
		return nil, fmt.Errorf("sequence context model not configured")
	}

	users := countUserTurns(turns)
	if users < minUserTurns {
		return nil, nil
	}

	summary, err := m.provider.SummarizeConversation(ctx, turns)
	if err != nil {
		return nil, fmt.Errorf("summarize conversation: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, nil
	}

	return &Signal{
		Summary:    summary,
		Confidence: turnConfidence(users),
	}, nil
}

// turnConfidence grows with the number of user turns. More turns give the
// summarizer more signal to work from.
func turnConfidence(userTurns int) float64 {
	c := baseConfidence + perTurnBoost*float64(userTurns-1)
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

func countUserTurns(turns []ai.Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == "user" && strings.TrimSpace(t.Text) != "" {
			n++
		}
	}
	return n
}
