package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/client-sim/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	conversation *handlers.ConversationHandler
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(conversationHandler *handlers.ConversationHandler) *Routes {
	return &Routes{
		conversation: conversationHandler,
	}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")

	conv := group.Group("/conversation")
	conv.GET("", r.conversation.Status)
	conv.GET("/summary", r.conversation.Summary)
	conv.GET("/history", r.conversation.History)
	conv.POST("/stop", r.conversation.Stop)
}
