package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gatedchat-backend/internal/services"
)

// stubRelay lets tests control the relay outcome and capture input.
type stubRelay struct {
	turn *services.ChatTurn
	err  error
	seen services.ChatInput
}

func (s *stubRelay) Answer(ctx context.Context, in services.ChatInput) (*services.ChatTurn, error) {
	s.seen = in
	if s.err != nil {
		return nil, s.err
	}
	return s.turn, nil
}

func newChatRouter(relay RelayService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/chat", NewChat(relay).Answer)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-Ip", "203.0.113.5")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatAnswer_Success(t *testing.T) {
	relay := &stubRelay{turn: &services.ChatTurn{Reply: "hi there", SessionID: "sess-1"}}
	r := newChatRouter(relay)

	w := postChat(t, r, `{"message":"hello","sessionId":"sess-1","fingerprint":"fp-1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "hi there" || resp.SessionID != "sess-1" {
		t.Fatalf("response = %+v", resp)
	}

	if relay.seen.Message != "hello" || relay.seen.SessionID != "sess-1" || relay.seen.Fingerprint != "fp-1" {
		t.Fatalf("relay input = %+v", relay.seen)
	}
	if relay.seen.IPAddress != "203.0.113.5" {
		t.Fatalf("client IP not forwarded: %q", relay.seen.IPAddress)
	}
}

func TestChatAnswer_MissingMessage(t *testing.T) {
	relay := &stubRelay{err: services.ErrEmptyMessage}
	r := newChatRouter(relay)

	w := postChat(t, r, `{"message":""}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Message is required" {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestChatAnswer_MalformedBody(t *testing.T) {
	relay := &stubRelay{turn: &services.ChatTurn{}}
	r := newChatRouter(relay)

	w := postChat(t, r, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestChatAnswer_UpstreamFailureIsGeneric(t *testing.T) {
	relay := &stubRelay{err: errors.New("dial tcp: connection refused to secret-internal-host")}
	r := newChatRouter(relay)

	w := postChat(t, r, `{"message":"hello"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Failed to process request" {
		t.Fatalf("error = %q, want generic message", resp["error"])
	}
}
