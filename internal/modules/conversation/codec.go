// README: Opaque wire form of a conversation context.
package conversation

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"tripflow/internal/intent"
)

// codecVersion is bumped when the envelope layout changes; older servers
// reject newer payloads as corrupt rather than misreading them.
const codecVersion = 1

var ErrCorruptContext = errors.New("conversation: corrupt context")

type envelope struct {
	Version int      `json:"v"`
	Context *Context `json:"context"`
}

// Encode serializes a context into an opaque token the client carries
// between requests. The token is versioned JSON in URL-safe base64.
func Encode(c *Context) (string, error) {
	raw, err := json.Marshal(envelope{Version: codecVersion, Context: c})
	if err != nil {
		return "", fmt.Errorf("conversation: encode: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode restores a context from its token. Any malformed input, from
// truncation to a version this server does not know, comes back as
// ErrCorruptContext so the caller can start a fresh conversation.
func Decode(token string) (*Context, error) {
	if token == "" {
		return nil, ErrCorruptContext
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrCorruptContext
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrCorruptContext
	}
	if env.Version != codecVersion || env.Context == nil || env.Context.SessionID == "" {
		return nil, ErrCorruptContext
	}
	c := env.Context
	if c.Intent == nil {
		c.Intent = intent.New()
	}
	if c.State == "" {
		c.State = StateCollectingDestination
	}
	return c, nil
}
