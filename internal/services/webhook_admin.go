package services

import (
	"context"
	"fmt"

	"formrelay/backend/internal/repository"
	"formrelay/backend/internal/webhooks"
	"formrelay/backend/pkg/models"
)

const maxLogPageSize = 100

// WebhookLogPage is one page of a form's delivery history with totals.
type WebhookLogPage struct {
	Logs  []*models.WebhookLog    `json:"logs"`
	Stats *models.WebhookLogStats `json:"stats"`
}

// WebhookAdminService serves the form owner's webhook tooling.
type WebhookAdminService struct {
	forms      repository.FormStore
	logs       repository.WebhookLogStore
	dispatcher WebhookDispatcher
}

// NewWebhookAdminService creates a WebhookAdminService.
func NewWebhookAdminService(forms repository.FormStore, logs repository.WebhookLogStore, dispatcher WebhookDispatcher) *WebhookAdminService {
	return &WebhookAdminService{forms: forms, logs: logs, dispatcher: dispatcher}
}

func (s *WebhookAdminService) ownedForm(ctx context.Context, owner, formID string) (*models.Form, error) {
	form, err := loadForm(ctx, s.forms, formID)
	if err != nil {
		return nil, err
	}
	if owner == "" || form.OwnerID != owner {
		return nil, ErrForbidden
	}
	return form, nil
}

// TestWebhook sends a sample payload to one of the form's webhooks, whether
// or not it is enabled. The attempt is not logged.
func (s *WebhookAdminService) TestWebhook(ctx context.Context, owner, formID, webhookID string) (webhooks.Result, error) {
	form, err := s.ownedForm(ctx, owner, formID)
	if err != nil {
		return webhooks.Result{}, err
	}
	hook, ok := form.Webhook(webhookID)
	if !ok {
		return webhooks.Result{}, ErrWebhookNotFound
	}
	return s.dispatcher.Test(ctx, hook, form.ID, form.Title), nil
}

// ListLogs returns a page of the form's delivery logs, newest first.
func (s *WebhookAdminService) ListLogs(ctx context.Context, owner, formID string, filter models.WebhookLogFilter) (*WebhookLogPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidFilter, filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", ErrInvalidFilter)
	}
	filter.Limit = min(filter.Limit, maxLogPageSize)

	form, err := s.ownedForm(ctx, owner, formID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.ListWebhookLogs(ctx, form.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list webhook logs: %w", err)
	}
	stats, err := s.logs.WebhookLogStats(ctx, form.ID)
	if err != nil {
		return nil, fmt.Errorf("webhook log stats: %w", err)
	}
	return &WebhookLogPage{Logs: logs, Stats: stats}, nil
}

// DeleteLogs removes the form's whole delivery history.
func (s *WebhookAdminService) DeleteLogs(ctx context.Context, owner, formID string) (int64, error) {
	form, err := s.ownedForm(ctx, owner, formID)
	if err != nil {
		return 0, err
	}
	n, err := s.logs.DeleteWebhookLogs(ctx, form.ID)
	if err != nil {
		return 0, fmt.Errorf("delete webhook logs: %w", err)
	}
	return n, nil
}
