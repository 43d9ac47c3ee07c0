package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"formrelay/backend/internal/repository"
	"formrelay/backend/pkg/models"
)

type MockAnalyticsStore struct {
	mock.Mock
}

func (m *MockAnalyticsStore) CreateAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockFormLookup struct {
	mock.Mock
}

func (m *MockFormLookup) GetForm(ctx context.Context, id string) (*models.Form, error) {
	args := m.Called(ctx, id)
	form, _ := args.Get(0).(*models.Form)
	return form, args.Error(1)
}

// knownForms resolves every id except those listed as missing.
func knownForms(missing ...string) *MockFormLookup {
	forms := new(MockFormLookup)
	for _, id := range missing {
		forms.On("GetForm", mock.Anything, id).Return(nil, repository.ErrNotFound)
	}
	forms.On("GetForm", mock.Anything, mock.Anything).Return(&models.Form{}, nil)
	return forms
}

func fixedTracker(store *MockAnalyticsStore, missing ...string) *Tracker {
	tr := NewTracker(knownForms(missing...), store)
	tr.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return tr
}

func TestTrack_PersistsEvent(t *testing.T) {
	store := new(MockAnalyticsStore)
	store.On("CreateAnalyticsEvent", mock.Anything, mock.MatchedBy(func(e *models.AnalyticsEvent) bool {
		return e.SessionID == "s1" && e.FormID == "f1" && e.Type == models.AnalyticsQuestionView && e.QuestionID == "q2"
	})).Return(nil)

	event, err := fixedTracker(store).Track(context.Background(), Session{ID: "s1", FormID: "f1"}, models.AnalyticsQuestionView, "q2")
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), event.CreatedAt)
	store.AssertExpectations(t)
}

func TestTrack_Validation(t *testing.T) {
	store := new(MockAnalyticsStore)
	tr := fixedTracker(store)
	ctx := context.Background()
	s := NewSession("f1")

	_, err := tr.Track(ctx, s, "page_scroll", "")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = tr.Track(ctx, s, models.AnalyticsAnswerChange, "")
	assert.ErrorIs(t, err, ErrMissingQuestion)

	_, err = tr.Track(ctx, Session{FormID: "f1"}, models.AnalyticsFormView, "")
	assert.ErrorIs(t, err, ErrMissingSession)

	store.AssertNotCalled(t, "CreateAnalyticsEvent", mock.Anything, mock.Anything)
}

func TestTrack_StoreError(t *testing.T) {
	store := new(MockAnalyticsStore)
	store.On("CreateAnalyticsEvent", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := fixedTracker(store).Track(context.Background(), NewSession("f1"), models.AnalyticsFormSubmit, "")
	assert.ErrorContains(t, err, "db down")
	assert.NotErrorIs(t, err, ErrUnknownForm)
}

func TestTrack_UnknownForm(t *testing.T) {
	store := new(MockAnalyticsStore)

	_, err := fixedTracker(store, "gone").Track(context.Background(), NewSession("gone"), models.AnalyticsFormView, "")
	assert.ErrorIs(t, err, ErrUnknownForm)
	store.AssertNotCalled(t, "CreateAnalyticsEvent", mock.Anything, mock.Anything)
}

// The form can vanish after the lookup; the dangling insert is reported the same way.
func TestTrack_FormDeletedBeforeInsert(t *testing.T) {
	store := new(MockAnalyticsStore)
	store.On("CreateAnalyticsEvent", mock.Anything, mock.Anything).Return(repository.ErrNotFound)

	_, err := fixedTracker(store).Track(context.Background(), NewSession("f1"), models.AnalyticsFormView, "")
	assert.ErrorIs(t, err, ErrUnknownForm)
}

func TestTrack_LookupError(t *testing.T) {
	forms := new(MockFormLookup)
	forms.On("GetForm", mock.Anything, "f1").Return(nil, errors.New("cache down"))
	store := new(MockAnalyticsStore)

	_, err := NewTracker(forms, store).Track(context.Background(), NewSession("f1"), models.AnalyticsFormView, "")
	assert.ErrorContains(t, err, "cache down")
	assert.NotErrorIs(t, err, ErrUnknownForm)
}

// Concurrent sessions never see each other's ids.
func TestTrack_SessionsAreIsolated(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]string{}
	)
	store := new(MockAnalyticsStore)
	store.On("CreateAnalyticsEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		e := args.Get(1).(*models.AnalyticsEvent)
		mu.Lock()
		defer mu.Unlock()
		if prev, ok := seen[e.SessionID]; ok {
			assert.Equal(t, prev, e.FormID)
		}
		seen[e.SessionID] = e.FormID
	}).Return(nil)
	tr := fixedTracker(store)

	var wg sync.WaitGroup
	for _, form := range []string{"f1", "f2", "f3", "f4"} {
		s := NewSession(form)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5 {
				_, err := tr.Track(context.Background(), s, models.AnalyticsQuestionView, "q1")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 4)
}
