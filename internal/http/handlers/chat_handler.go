// README: Chat resolution handler; one utterance in, one resolution out.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tripflow/internal/intent"
	"tripflow/internal/log"
	"tripflow/internal/modules/conversation"
	"tripflow/internal/service"
)

// resolveTimeout caps one whole turn, model layers included.
const resolveTimeout = 15 * time.Second

type ChatHandler struct {
	resolver *service.Resolver
	sessions *conversation.Store
}

func NewChatHandler(resolver *service.Resolver, sessions *conversation.Store) *ChatHandler {
	return &ChatHandler{resolver: resolver, sessions: sessions}
}

type chatResolveReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Context   string `json:"context"`
}

type chatResolveResp struct {
	Message       string             `json:"message"`
	Intent        *intent.TripIntent `json:"intent"`
	MissingFields []intent.Field     `json:"missing_fields"`
	CanGenerate   bool               `json:"can_generate"`
	State         string             `json:"state"`
	SessionID     string             `json:"session_id"`
	Context       string             `json:"context"`
	Confidence    string             `json:"confidence"`
}

// Resolve handles POST /api/chat/resolve. An empty message is not a bad
// request; the resolver answers it with a clarifying prompt. A client that
// lost its context token can send session_id alone and continue from the
// mirrored session.
func (h *ChatHandler) Resolve(c *gin.Context) {
	var req chatResolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	serialized := req.Context
	if serialized == "" && req.SessionID != "" && h.sessions != nil {
		token, ok, err := h.sessions.LoadToken(c.Request.Context(), strings.TrimSpace(req.SessionID))
		if err != nil {
			log.Warnf("chat: session lookup: %v", err)
		} else if ok {
			serialized = token
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), resolveTimeout)
	defer cancel()

	res := h.resolver.Resolve(ctx, req.Message, serialized)
	writeJSON(c, http.StatusOK, chatResolveResp{
		Message:       res.Message,
		Intent:        res.Intent,
		MissingFields: res.MissingFields,
		CanGenerate:   res.CanGenerate,
		State:         string(res.State),
		SessionID:     res.SessionID,
		Context:       res.SerializedContext,
		Confidence:    string(res.Confidence),
	})
}
