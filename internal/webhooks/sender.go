package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"formrelay/backend/pkg/models"
)

const (
	// DefaultUserAgent identifies outbound deliveries.
	DefaultUserAgent = "FormRelay-Webhooks/1.0"

	// maxResponseChars bounds the response body kept for diagnostics.
	maxResponseChars = 1000
	// maxResponseRead bounds how much of a response body is read at all.
	maxResponseRead = 64 << 10
)

// Result is the outcome of one delivery attempt. Failures are values, never
// errors: transport errors and non-2xx statuses both yield Success false.
type Result struct {
	Success      bool          `json:"success"`
	StatusCode   int           `json:"status_code,omitempty"`
	ResponseBody string        `json:"response_body,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"duration_ms"`
}

// Sender performs single webhook POSTs.
type Sender struct {
	client    *http.Client
	userAgent string
	metrics   instruments
}

// NewSender creates a Sender. A nil client uses a client without timeout.
func NewSender(client *http.Client, userAgent string) *Sender {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Sender{
		client:    client,
		userAgent: userAgent,
		metrics:   newInstruments(),
	}
}

// Send serializes payload and POSTs it to the webhook once, without retry.
func (s *Sender) Send(ctx context.Context, webhook models.Webhook, payload Payload) Result {
	body, err := payload.Encode()
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to encode payload: %v", err)}
	}
	return s.deliver(ctx, webhook, payload, body)
}

func (s *Sender) deliver(ctx context.Context, webhook models.Webhook, payload Payload, body []byte) Result {
	ctx, span := tracer.Start(ctx, "webhooks.deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("webhook.id", webhook.ID),
			attribute.String("webhook.event", string(payload.Event)),
		))
	defer span.End()

	start := time.Now()
	result := s.post(ctx, webhook, payload, body)
	result.Duration = time.Since(start)
	result.DurationMs = result.Duration.Milliseconds()

	if result.StatusCode > 0 {
		span.SetAttributes(attribute.Int("http.status_code", result.StatusCode))
	}
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	s.metrics.record(ctx, string(payload.Event), result)

	return result
}

func (s *Sender) post(ctx context.Context, webhook models.Webhook, payload Payload, body []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set(HeaderEvent, string(payload.Event))
	req.Header.Set(HeaderTimestamp, payload.Timestamp)
	// custom headers may override the standard ones; the owner controls both
	for k, v := range webhook.Headers {
		req.Header.Set(k, v)
	}
	if webhook.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(webhook.Secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseRead))
	result := Result{
		StatusCode:   resp.StatusCode,
		Success:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		ResponseBody: truncate(string(raw), maxResponseChars),
	}
	if !result.Success {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	} else if err != nil {
		result.Error = fmt.Sprintf("failed to read response body: %v", err)
	}
	return result
}

// truncate keeps the first n characters of s and marks the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
