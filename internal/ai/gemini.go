package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements CompletionProvider and SummaryProvider using
// Google's Gemini models.
type GeminiProvider struct {
	client  *genai.Client
	fields  *genai.GenerativeModel
	summary *genai.GenerativeModel
	now     func() time.Time
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Use Gemini 2.0 Flash for low latency and cost efficiency.
	fields := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	fields.ResponseMIMEType = "application/json"

	// Field extraction wants stable output over creative output.
	fields.SetTemperature(0.2)

	// The summarizer answers in plain text, one line.
	summary := client.GenerativeModel("gemini-2.0-flash")
	summary.SetTemperature(0.4)

	return &GeminiProvider{
		client:  client,
		fields:  fields,
		summary: summary,
		now:     time.Now,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// IsAvailable reports whether the provider can serve requests.
func (p *GeminiProvider) IsAvailable() bool {
	return p != nil && p.client != nil
}

// ExtractTripFields asks the model for trip fields the rule-based layers missed.
func (p *GeminiProvider) ExtractTripFields(ctx context.Context, utterance string, turns []Turn, known map[string]string) (*FallbackFields, error) {
	systemPrompt := buildExtractionPrompt(p.now().Format("2006-01-02"), known, turns)

	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", systemPrompt, utterance)

	resp, err := p.fields.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	// Extract text from the response parts.
	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	// Clean up potential markdown formatting (though json mode should handle this, safety first).
	cleanJSON := cleanJSONString(responseText.String())

	var result FallbackFields
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}

	return &result, nil
}

// SummarizeConversation condenses the conversation into one plain-text line.
func (p *GeminiProvider) SummarizeConversation(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}

	prompt := fmt.Sprintf(`Summarize this travel-planning conversation in ONE sentence.
State only what the traveler wants so far. No preamble, no markdown.

Conversation:
%s`, formatTurns(turns))

	resp, err := p.summary.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini summary error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}

	return strings.TrimSpace(out.String()), nil
}

// buildExtractionPrompt constructs the instructions for the model.
func buildExtractionPrompt(today string, known map[string]string, turns []Turn) string {
	knownBlock := formatKnownFields(known)
	historyBlock := formatTurns(turns)
	if historyBlock == "" {
		historyBlock = "NONE"
	}

	return fmt.Sprintf(`Role: You are the trip-intake assistant for "tripflow", a travel planning service.
Context:
- Current Date: %s
- Already Resolved Fields: %s
- Conversation History: %s

RULES:

1. Extract ONLY what the user actually stated in the message. Do NOT invent
   destinations, dates or budgets the user never mentioned.
2. NEVER contradict an Already Resolved Field. Omit those fields entirely.
3. Resolve relative dates ("next friday", "in two weeks") against Current Date
   and output startDate as YYYY-MM-DD. If no date was stated, omit startDate.
4. durationDays counts days, not nights. "5 nights" means 6 days.
5. travelers is the total party size including children.
6. If the user stated a budget amount, set budgetAmount and budgetCurrency
   (default "USD" when no currency is named) and budgetPerPerson when the
   amount is per traveler. If they only spoke in terms like "cheap" or
   "luxury", set budgetTier to "budget", "mid-range" or "luxury" instead.
7. tripType is one of: solo, couple, family, business, honeymoon, backpacking,
   luxury, budget, adventure, relaxation, cultural. Omit when unclear.
8. Omit every field you are not confident about. An empty object {} is a
   valid answer.

Output JSON Schema:
{
  "destinations": ["string"],
  "origin": "string or omit",
  "startDate": "YYYY-MM-DD or omit",
  "durationDays": integer or omit,
  "travelers": integer or omit,
  "budgetAmount": number or omit,
  "budgetCurrency": "string or omit",
  "budgetPerPerson": boolean or omit,
  "budgetTier": "budget" | "mid-range" | "luxury" or omit,
  "tripType": "string or omit",
  "interests": ["string"]
}`, today, knownBlock, historyBlock)
}

// formatKnownFields renders resolved fields in a stable order for the prompt.
func formatKnownFields(known map[string]string) string {
	if len(known) == 0 {
		return "NONE"
	}
	keys := make([]string, 0, len(known))
	for k := range known {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, known[k]))
	}
	return strings.Join(parts, ", ")
}

// formatTurns renders the conversation history one line per turn.
func formatTurns(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
	}
	return strings.TrimSpace(b.String())
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
