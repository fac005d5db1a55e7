package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/client-sim/internal/domain/analytics"
	"github.com/janhq/client-sim/internal/domain/conversation"
	"github.com/janhq/client-sim/internal/domain/simulator"
)

// Conversation is the read and stop surface of a running simulation.
type Conversation interface {
	Status() simulator.Status
	Summary() analytics.Summary
	History() []conversation.Message
	Stop()
}

// ConversationHandler exposes the running conversation over HTTP.
type ConversationHandler struct {
	conv   Conversation
	redact func(string) string
	log    zerolog.Logger
}

// NewConversationHandler creates the handler. redact may be nil.
func NewConversationHandler(conv Conversation, redact func(string) string, log zerolog.Logger) *ConversationHandler {
	if redact == nil {
		redact = func(s string) string { return s }
	}
	return &ConversationHandler{
		conv:   conv,
		redact: redact,
		log:    log,
	}
}

// MessageResponse is one history entry with its body sanitized.
type MessageResponse struct {
	Sender   conversation.Sender `json:"sender"`
	Body     string              `json:"body"`
	SentAt   time.Time           `json:"sent_at"`
	ThreadID string              `json:"thread_id,omitempty"`
}

// HistoryResponse lists the exchanged messages in order.
type HistoryResponse struct {
	Object string            `json:"object"`
	Data   []MessageResponse `json:"data"`
	Total  int               `json:"total"`
}

// Status handles GET /v1/conversation.
func (h *ConversationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.conv.Status())
}

// Summary handles GET /v1/conversation/summary.
func (h *ConversationHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.conv.Summary())
}

// History handles GET /v1/conversation/history.
func (h *ConversationHandler) History(c *gin.Context) {
	messages := h.conv.History()
	data := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		data = append(data, MessageResponse{
			Sender:   msg.Sender,
			Body:     h.redact(msg.Body),
			SentAt:   msg.SentAt,
			ThreadID: msg.ThreadID,
		})
	}
	c.JSON(http.StatusOK, HistoryResponse{
		Object: "list",
		Data:   data,
		Total:  len(data),
	})
}

// Stop handles POST /v1/conversation/stop.
func (h *ConversationHandler) Stop(c *gin.Context) {
	status := h.conv.Status()
	if status.State.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conversation_terminated",
			"message": "conversation has already ended",
		})
		return
	}

	h.conv.Stop()
	h.log.Info().Str("conversation_id", status.ConversationID).Msg("stop requested over HTTP")
	c.JSON(http.StatusAccepted, gin.H{
		"id":     status.ConversationID,
		"status": "stopping",
	})
}
