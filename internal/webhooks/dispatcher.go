// Package webhooks delivers signed form events to the webhook endpoints
// configured on a form and records every attempt.
//
// Delivery is best effort: each attempt is a single POST, failures are
// returned as values and logged, and nothing is retried automatically.
package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	"formrelay/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogWriter persists delivery records.
type LogWriter interface {
	CreateWebhookLog(ctx context.Context, log *models.WebhookLog) error
}

// Delivery pairs a webhook with the outcome of its attempt.
type Delivery struct {
	Webhook models.Webhook `json:"webhook"`
	Result  Result         `json:"result"`
}

// Dispatcher fans a form event out to every subscribed webhook.
type Dispatcher struct {
	sender         *Sender
	logs           LogWriter
	logger         Logger
	maxConcurrency int
	now            func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxConcurrency caps the number of deliveries in flight for one event.
// Zero or less means one goroutine per matching webhook.
func WithMaxConcurrency(n int) Option {
	return func(d *Dispatcher) { d.maxConcurrency = n }
}

// WithClock overrides the source of payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender *Sender, logs LogWriter, logger Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		logs:   logs,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Matching returns the enabled webhooks subscribed to event, in configured order.
func Matching(hooks []models.Webhook, event models.WebhookEvent) []models.Webhook {
	var matched []models.Webhook
	for _, w := range hooks {
		if w.Enabled && w.Subscribes(event) {
			matched = append(matched, w)
		}
	}
	return matched
}

// Trigger delivers event for response to every enabled webhook of form that
// subscribes to it, concurrently, and waits for all attempts to finish. Each
// attempt is logged. The returned deliveries follow the configured webhook
// order; a failing endpoint never affects the others.
func (d *Dispatcher) Trigger(ctx context.Context, form *models.Form, response *models.Response, event models.WebhookEvent) []Delivery {
	hooks := Matching(form.Settings.Webhooks, event)
	if len(hooks) == 0 {
		return nil
	}

	payload := NewPayload(form, response, event, d.now())
	body, encErr := payload.Encode()

	limit := d.maxConcurrency
	if limit <= 0 || limit > len(hooks) {
		limit = len(hooks)
	}

	mapper := iter.Mapper[models.Webhook, Delivery]{MaxGoroutines: limit}
	deliveries := mapper.Map(hooks, func(w *models.Webhook) Delivery {
		var result Result
		if encErr != nil {
			result = Result{Error: fmt.Sprintf("failed to encode payload: %v", encErr)}
		} else {
			result = d.sender.deliver(ctx, *w, payload, body)
		}
		d.logDelivery(ctx, form.ID, response.ID, *w, event, body, result)
		return Delivery{Webhook: *w, Result: result}
	})

	d.logger.Debug("webhooks triggered",
		"form_id", form.ID,
		"response_id", response.ID,
		"event", string(event),
		"count", len(deliveries),
	)
	return deliveries
}

// Test sends one synthetic delivery to webhook regardless of its enabled flag
// and event subscriptions. Test deliveries are not logged.
func (d *Dispatcher) Test(ctx context.Context, webhook models.Webhook, formID, formTitle string) Result {
	return d.sender.Send(ctx, webhook, testPayload(formID, formTitle, d.now()))
}

// logDelivery writes one log row. A failed write is reported and swallowed.
func (d *Dispatcher) logDelivery(ctx context.Context, formID, responseID string, webhook models.Webhook, event models.WebhookEvent, body []byte, result Result) {
	entry := &models.WebhookLog{
		ID:         uuid.New().String(),
		FormID:     formID,
		ResponseID: responseID,
		WebhookID:  webhook.ID,
		WebhookURL: webhook.URL,
		EventType:  event,
		Status:     models.DeliveryFailed,
		DurationMs: result.DurationMs,
		RetryCount: 0,
		CreatedAt:  d.now().UTC(),
	}
	if result.Success {
		entry.Status = models.DeliverySuccess
	}
	if len(body) > 0 {
		entry.RequestBody = json.RawMessage(body)
	}
	if result.StatusCode > 0 {
		code := result.StatusCode
		entry.StatusCode = &code
	}
	if result.ResponseBody != "" {
		respBody := result.ResponseBody
		entry.ResponseBody = &respBody
	}
	if result.Error != "" {
		msg := result.Error
		entry.ErrorMessage = &msg
	}

	if err := d.logs.CreateWebhookLog(ctx, entry); err != nil {
		d.logger.Error("failed to log webhook delivery",
			"form_id", formID,
			"webhook_id", webhook.ID,
			"error", err,
		)
	}
}
