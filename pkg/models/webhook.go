package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent names a form event that webhooks subscribe to.
type WebhookEvent string

const (
	EventResponseCreated WebhookEvent = "response.created"
	EventResponseUpdated WebhookEvent = "response.updated"
)

// Valid reports whether e is a known event.
func (e WebhookEvent) Valid() bool {
	return e == EventResponseCreated || e == EventResponseUpdated
}

// Webhook is an endpoint configured in a form's settings.
type Webhook struct {
	ID      string            `json:"id" yaml:"id"`
	URL     string            `json:"url" yaml:"url"`
	Enabled bool              `json:"enabled" yaml:"enabled"`
	Events  []WebhookEvent    `json:"events" yaml:"events"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Secret  string            `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// Subscribes reports whether the webhook is subscribed to event.
func (w Webhook) Subscribes(event WebhookEvent) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// DeliveryStatus is the outcome of a single delivery attempt.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Valid reports whether s is a known status.
func (s DeliveryStatus) Valid() bool {
	return s == DeliveryPending || s == DeliverySuccess || s == DeliveryFailed
}

// WebhookLog is the append-only record of one delivery attempt.
type WebhookLog struct {
	ID           string          `json:"id" db:"id"`
	FormID       string          `json:"form_id" db:"form_id"`
	ResponseID   string          `json:"response_id" db:"response_id"`
	WebhookID    string          `json:"webhook_id" db:"webhook_id"`
	WebhookURL   string          `json:"webhook_url" db:"webhook_url"`
	EventType    WebhookEvent    `json:"event_type" db:"event_type"`
	Status       DeliveryStatus  `json:"status" db:"status"`
	StatusCode   *int            `json:"status_code,omitempty" db:"status_code"`
	RequestBody  json.RawMessage `json:"request_body,omitempty" db:"request_body"` // JSONB
	ResponseBody *string         `json:"response_body,omitempty" db:"response_body"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	DurationMs   int64           `json:"duration_ms" db:"duration_ms"`
	RetryCount   int             `json:"retry_count" db:"retry_count"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// WebhookLogStats counts a form's delivery attempts by status.
type WebhookLogStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// WebhookLogFilter narrows a webhook log listing.
type WebhookLogFilter struct {
	Status    DeliveryStatus
	WebhookID string
	Limit     int
	Offset    int
}
