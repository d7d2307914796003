package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// httpClient is used for all OpenAI requests; the 30s timeout guards against stalled connections
// while context cancellation is still honoured via NewRequestWithContext.
var httpClient = &http.Client{Timeout: 30 * time.Second}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIProvider implements CompletionProvider against the OpenAI chat
// completions endpoint without pulling in an SDK.
type OpenAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	now      func() time.Time
}

// NewOpenAIProvider builds a provider for the given API key.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:   apiKey,
		model:    "gpt-4o-mini",
		endpoint: openAIEndpoint,
		now:      time.Now,
	}
}

// IsAvailable reports whether an API key is configured.
func (p *OpenAIProvider) IsAvailable() bool {
	return p != nil && p.apiKey != ""
}

// ExtractTripFields asks the model for trip fields the rule-based layers missed.
func (p *OpenAIProvider) ExtractTripFields(ctx context.Context, utterance string, turns []Turn, known map[string]string) (*FallbackFields, error) {
	systemPrompt := buildExtractionPrompt(p.now().Format("2006-01-02"), known, turns)

	content, err := p.call(ctx, systemPrompt, utterance)
	if err != nil {
		return nil, err
	}

	cleanJSON := cleanJSONString(content)

	var result FallbackFields
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}

	return &result, nil
}

// call sends one system+user exchange to the chat completions endpoint and
// returns the reply text.
func (p *OpenAIProvider) call(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("openai: unmarshal response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("openai: api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openai: API returned empty choices array (raw: %s)", body)
	}
	return cr.Choices[0].Message.Content, nil
}
