package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"formrelay/backend/internal/logic"
	"formrelay/backend/internal/repository"
	"formrelay/backend/internal/webhooks"
	"formrelay/backend/pkg/models"
)

// SubmissionService stores responses and notifies the form's webhooks.
// Webhook delivery runs in the background and never affects the caller.
type SubmissionService struct {
	forms      repository.FormStore
	responses  repository.ResponseStore
	dispatcher WebhookDispatcher
	logger     Logger
	now        func() time.Time

	inflight sync.WaitGroup
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(forms repository.FormStore, responses repository.ResponseStore, dispatcher WebhookDispatcher, logger Logger) *SubmissionService {
	return &SubmissionService{
		forms:      forms,
		responses:  responses,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit validates and stores a new response, then dispatches response.created.
func (s *SubmissionService) Submit(ctx context.Context, formID string, answers models.Answers) (*models.Response, error) {
	form, err := loadForm(ctx, s.forms, formID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = models.Answers{}
	}
	if missing := logic.MissingRequired(form.Questions, answers); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	now := s.now().UTC()
	response := &models.Response{
		ID:          uuid.NewString(),
		FormID:      form.ID,
		Answers:     answers,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.responses.CreateResponse(ctx, response); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}

	s.dispatch(ctx, form, response, models.EventResponseCreated)
	return response, nil
}

// Update replaces the answers of an existing response, then dispatches
// response.updated.
func (s *SubmissionService) Update(ctx context.Context, formID, responseID string, answers models.Answers) (*models.Response, error) {
	form, err := loadForm(ctx, s.forms, formID)
	if err != nil {
		return nil, err
	}
	response, err := s.responses.GetResponse(ctx, form.ID, responseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load response %s: %w", responseID, err)
	}
	if answers == nil {
		answers = models.Answers{}
	}
	if missing := logic.MissingRequired(form.Questions, answers); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	response.Answers = answers
	response.UpdatedAt = s.now().UTC()
	if err := s.responses.UpdateResponse(ctx, response); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("update response: %w", err)
	}

	s.dispatch(ctx, form, response, models.EventResponseUpdated)
	return response, nil
}

// Drain waits until every background dispatch has finished or ctx is done.
func (s *SubmissionService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SubmissionService) dispatch(ctx context.Context, form *models.Form, response *models.Response, event models.WebhookEvent) {
	if len(webhooks.Matching(form.Settings.Webhooks, event)) == 0 {
		return
	}
	// Deliveries outlive the request that caused them.
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		deliveries := s.dispatcher.Trigger(ctx, form, response, event)
		failed := 0
		for _, d := range deliveries {
			if !d.Result.Success {
				failed++
				s.logger.Warn("webhook delivery failed",
					"form_id", form.ID, "webhook_id", d.Webhook.ID, "error", d.Result.Error)
			}
		}
		s.logger.Info("webhooks dispatched",
			"form_id", form.ID, "response_id", response.ID, "event", event,
			"deliveries", len(deliveries), "failed", failed)
	}()
}
