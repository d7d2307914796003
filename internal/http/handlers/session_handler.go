// README: Session inspection handler backed by the Redis mirror.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripflow/internal/log"
	"tripflow/internal/modules/conversation"
)

type SessionHandler struct {
	sessions *conversation.Store
}

func NewSessionHandler(sessions *conversation.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get handles GET /api/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, http.StatusBadRequest, "invalid session id")
		return
	}
	if h.sessions == nil {
		writeError(c, http.StatusServiceUnavailable, "session mirror disabled")
		return
	}

	cctx, ok, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		log.Errorf("sessions: load %s: %v", id, err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(c, http.StatusOK, cctx)
}
