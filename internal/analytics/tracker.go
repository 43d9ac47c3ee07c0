// Package analytics records respondent interactions. Each call carries its
// Session explicitly; the package keeps no session state of its own.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"formrelay/backend/internal/repository"
	"formrelay/backend/pkg/models"
)

var (
	ErrInvalidEvent    = errors.New("analytics: unknown event type")
	ErrMissingQuestion = errors.New("analytics: event requires a question id")
	ErrMissingSession  = errors.New("analytics: session id and form id are required")
	ErrUnknownForm     = errors.New("analytics: form not found")
)

// Session identifies one respondent filling one form.
type Session struct {
	ID     string
	FormID string
}

// NewSession starts a session with a fresh id.
func NewSession(formID string) Session {
	return Session{ID: uuid.NewString(), FormID: formID}
}

func (s Session) valid() bool {
	return s.ID != "" && s.FormID != ""
}

// FormLookup resolves the form an event belongs to.
type FormLookup interface {
	GetForm(ctx context.Context, id string) (*models.Form, error)
}

// Tracker persists analytics events.
type Tracker struct {
	forms FormLookup
	store repository.AnalyticsStore
	now   func() time.Time
}

// NewTracker creates a Tracker that checks events against forms and writes
// them to store.
func NewTracker(forms FormLookup, store repository.AnalyticsStore) *Tracker {
	return &Tracker{forms: forms, store: store, now: time.Now}
}

func requiresQuestion(t models.AnalyticsEventType) bool {
	return t == models.AnalyticsQuestionView || t == models.AnalyticsAnswerChange
}

// Track records one event for the session and returns it.
func (t *Tracker) Track(ctx context.Context, s Session, eventType models.AnalyticsEventType, questionID string) (*models.AnalyticsEvent, error) {
	if !s.valid() {
		return nil, ErrMissingSession
	}
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEvent, eventType)
	}
	if requiresQuestion(eventType) && questionID == "" {
		return nil, ErrMissingQuestion
	}
	if _, err := t.forms.GetForm(ctx, s.FormID); err != nil {
		return nil, unknownForm(s.FormID, err)
	}

	event := &models.AnalyticsEvent{
		ID:         uuid.NewString(),
		SessionID:  s.ID,
		FormID:     s.FormID,
		Type:       eventType,
		QuestionID: questionID,
		CreatedAt:  t.now().UTC(),
	}
	if err := t.store.CreateAnalyticsEvent(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// form deleted between the lookup and the insert
			return nil, fmt.Errorf("%w: %s", ErrUnknownForm, s.FormID)
		}
		return nil, fmt.Errorf("store analytics event: %w", err)
	}
	return event, nil
}

func unknownForm(formID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownForm, formID)
	}
	return fmt.Errorf("load form %s: %w", formID, err)
}
