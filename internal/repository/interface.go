package repository

import (
	"context"
	"errors"

	"formrelay/backend/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("repository: not found")

// FormStore persists form definitions.
type FormStore interface {
	// GetForm retrieves a form by its ID.
	GetForm(ctx context.Context, id string) (*models.Form, error)
	// SaveForm inserts or replaces a form.
	SaveForm(ctx context.Context, form *models.Form) error
}

// ResponseStore persists form responses.
type ResponseStore interface {
	CreateResponse(ctx context.Context, response *models.Response) error
	// UpdateResponse replaces the answers of an existing response and bumps updated_at.
	UpdateResponse(ctx context.Context, response *models.Response) error
	GetResponse(ctx context.Context, formID, id string) (*models.Response, error)
}

// WebhookLogStore persists webhook delivery attempts.
type WebhookLogStore interface {
	CreateWebhookLog(ctx context.Context, log *models.WebhookLog) error
	// ListWebhookLogs returns a form's logs, newest first.
	ListWebhookLogs(ctx context.Context, formID string, filter models.WebhookLogFilter) ([]*models.WebhookLog, error)
	WebhookLogStats(ctx context.Context, formID string) (*models.WebhookLogStats, error)
	// DeleteWebhookLogs removes every log of a form and reports how many went.
	DeleteWebhookLogs(ctx context.Context, formID string) (int64, error)
}

// AnalyticsStore persists analytics events.
type AnalyticsStore interface {
	CreateAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error
}

// Repository aggregates every store the service needs.
type Repository interface {
	FormStore
	ResponseStore
	WebhookLogStore
	AnalyticsStore
	Ping(ctx context.Context) error
}
