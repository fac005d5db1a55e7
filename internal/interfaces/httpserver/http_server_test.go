package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/client-sim/internal/config"
	"github.com/janhq/client-sim/internal/domain/analytics"
	"github.com/janhq/client-sim/internal/domain/conversation"
	"github.com/janhq/client-sim/internal/domain/simulator"
	"github.com/janhq/client-sim/internal/interfaces/httpserver"
	"github.com/janhq/client-sim/internal/interfaces/httpserver/handlers"
)

type stubConversation struct {
	status  simulator.Status
	summary analytics.Summary
	history []conversation.Message
	stopped int
}

func (s *stubConversation) Status() simulator.Status { return s.status }
func (s *stubConversation) Summary() analytics.Summary { return s.summary }
func (s *stubConversation) History() []conversation.Message { return s.history }
func (s *stubConversation) Stop() { s.stopped++ }

func newTestServer(conv *stubConversation) http.Handler {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{ServiceName: "client-sim", Environment: "test"}
	redact := func(s string) string { return strings.ReplaceAll(s, "jane@example.com", "[EMAIL]") }
	deps := httpserver.Dependencies{"llm": func() string { return "closed" }}
	return httpserver.New(cfg, zerolog.Nop(), conv, redact, deps).Handler()
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func runningConversation() *stubConversation {
	return &stubConversation{
		status: simulator.Status{
			ConversationID: "01HZX",
			State:          simulator.StateAwaitingReply,
			Round:          2,
			MaxRounds:      50,
		},
		summary: analytics.Summary{EmailsSent: 3, EmailsReceived: 2, Score: 64},
		history: []conversation.Message{
			{Sender: conversation.SenderClient, Body: "Reach me at jane@example.com", SentAt: time.Unix(100, 0)},
			{Sender: conversation.SenderCounterpart, Body: "Happy to help!", SentAt: time.Unix(300, 0)},
		},
	}
}

var _ handlers.Conversation = (*stubConversation)(nil)

func TestHealthAndReadiness(t *testing.T) {
	conv := runningConversation()
	h := newTestServer(conv)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz").Code)

	rec := do(t, h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","dependencies":{"llm":"closed"}}`, rec.Body.String())

	conv.status.State = simulator.StateTerminated
	rec = do(t, h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"terminated","dependencies":{"llm":"closed"}}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(runningConversation()), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConversationStatus(t *testing.T) {
	rec := do(t, newTestServer(runningConversation()), http.MethodGet, "/v1/conversation")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "01HZX", body["id"])
	assert.Equal(t, "awaiting_reply", body["state"])
	assert.Equal(t, float64(2), body["round"])
	assert.Equal(t, float64(50), body["max_rounds"])
}

func TestConversationSummary(t *testing.T) {
	rec := do(t, newTestServer(runningConversation()), http.MethodGet, "/v1/conversation/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary analytics.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.EmailsSent)
	assert.Equal(t, 2, summary.EmailsReceived)
	assert.Equal(t, 64.0, summary.Score)
}

func TestConversationHistoryIsSanitized(t *testing.T) {
	rec := do(t, newTestServer(runningConversation()), http.MethodGet, "/v1/conversation/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "Reach me at [EMAIL]", resp.Data[0].Body)
	assert.Equal(t, conversation.SenderCounterpart, resp.Data[1].Sender)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")
}

func TestConversationStop(t *testing.T) {
	conv := runningConversation()
	h := newTestServer(conv)

	rec := do(t, h, http.MethodPost, "/v1/conversation/stop")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, conv.stopped)

	conv.status.State = simulator.StateTerminated
	rec = do(t, h, http.MethodPost, "/v1/conversation/stop")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, conv.stopped)
}
