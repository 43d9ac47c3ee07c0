// Package services orchestrates the logic evaluator, storage and webhook
// dispatch behind the operations exposed by the HTTP API and MCP tools.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"formrelay/backend/internal/repository"
	"formrelay/backend/internal/webhooks"
	"formrelay/backend/pkg/models"
)

var (
	ErrFormNotFound        = errors.New("form not found")
	ErrResponseNotFound    = errors.New("response not found")
	ErrWebhookNotFound     = errors.New("webhook not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrInvalidDirection    = errors.New("direction must be next or previous")
	ErrInvalidFilter       = errors.New("invalid webhook log filter")
)

// ValidationError lists required questions that are visible but unanswered.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required answers: %s", strings.Join(e.Missing, ", "))
}

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// WebhookDispatcher delivers form events to webhooks.
type WebhookDispatcher interface {
	Trigger(ctx context.Context, form *models.Form, response *models.Response, event models.WebhookEvent) []webhooks.Delivery
	Test(ctx context.Context, webhook models.Webhook, formID, formTitle string) webhooks.Result
}

var _ WebhookDispatcher = (*webhooks.Dispatcher)(nil)

func loadForm(ctx context.Context, forms repository.FormStore, formID string) (*models.Form, error) {
	form, err := forms.GetForm(ctx, formID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load form %s: %w", formID, err)
	}
	return form, nil
}
