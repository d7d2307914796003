// README: API gateway; registers HTTP routes and delegates to the resolver.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripflow/internal/http/handlers"
	"tripflow/internal/http/middleware"
	"tripflow/internal/modules/conversation"
	"tripflow/internal/service"
)

type ServerDeps struct {
	Resolver *service.Resolver
	Sessions *conversation.Store
}

type Server struct {
	resolver *service.Resolver
	sessions *conversation.Store
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		resolver: deps.Resolver,
		sessions: deps.Sessions,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())

	chat := handlers.NewChatHandler(s.resolver, s.sessions)
	r.POST("/api/chat/resolve", chat.Resolve)

	sessions := handlers.NewSessionHandler(s.sessions)
	r.GET("/api/sessions/:id", sessions.Get)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
