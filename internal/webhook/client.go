// Package webhook implements the outbound client for the external
// webhook-based assistant. The upstream is treated as an opaque HTTP
// endpoint: requests carry the user query, and responses are probed
// tolerantly because different upstream scenarios return different field
// names.
//
// Reply extraction fallback order (fixed, in priority): "answer",
// "response", "message", "output". When none is present the client returns
// NoReplyFallback and logs the event, so the relay stays usable across
// incompatible upstream response shapes.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NoReplyFallback is returned when the upstream answered 2xx but carried no
// recognized reply field.
const NoReplyFallback = "No response from assistant"

// maxErrorBody caps how much of a failed upstream response is read while
// probing for a structured error message.
const maxErrorBody = 16 << 10

// Request is the payload sent to the upstream responder.
type Request struct {
	Query     string `json:"query"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId,omitempty"`
}

// Response is the superset of shapes observed from the upstream. Exactly
// which reply field is populated depends on the upstream scenario.
type Response struct {
	Answer   string `json:"answer,omitempty"`
	Reply    string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
	Output   string `json:"output,omitempty"`
	Metadata any    `json:"metadata,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client posts chat queries to a single webhook URL with a bounded timeout.
// The zero value is not usable; construct with NewClient.
type Client struct {
	url string
	hc  *http.Client
}

// NewClient builds a webhook client. A timeout <= 0 defaults to 20s; the
// call is always bounded so a stalled upstream cannot block the relay.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url: url,
		hc:  &http.Client{Timeout: timeout},
	}
}

// Ask forwards a user query upstream and returns the extracted reply and
// any metadata the upstream attached. Errors never contain the upstream
// endpoint; callers surface a generic message to clients and log the
// detail server-side.
func (c *Client) Ask(ctx context.Context, query, sessionID string) (string, any, error) {
	tr := otel.Tracer("webhook/Client")
	ctx, span := tr.Start(ctx, "Ask",
		trace.WithAttributes(attribute.String("chat.session_id", sessionID)),
	)
	defer span.End()

	payload := Request{
		Query:     query,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SessionID: sessionID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, fmt.Errorf("webhook status %d: %s", resp.StatusCode, upstreamError(resp.Body))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", nil, fmt.Errorf("decode webhook response: %w", err)
	}
	return ExtractReply(&out), out.Metadata, nil
}

// ExtractReply probes the documented reply fields in priority order and
// falls back to NoReplyFallback, logging when the upstream shape carried
// nothing recognizable.
func ExtractReply(r *Response) string {
	for _, candidate := range []string{r.Answer, r.Reply, r.Message, r.Output} {
		if candidate != "" {
			return candidate
		}
	}
	log.Warn().Msg("webhook response carried no recognized reply field")
	return NoReplyFallback
}

// upstreamError tries to pull a structured {"error": ...} message from a
// failed response body; it degrades to a generic marker when the body is
// unreadable or unstructured.
func upstreamError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return "upstream error"
	}
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return "upstream error"
}
