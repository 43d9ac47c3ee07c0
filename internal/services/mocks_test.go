package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"formrelay/backend/internal/webhooks"
	"formrelay/backend/pkg/models"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Warn(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

type MockFormStore struct {
	mock.Mock
}

func (m *MockFormStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Form), args.Error(1)
}

func (m *MockFormStore) SaveForm(ctx context.Context, form *models.Form) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

type MockResponseStore struct {
	mock.Mock
}

func (m *MockResponseStore) CreateResponse(ctx context.Context, response *models.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseStore) UpdateResponse(ctx context.Context, response *models.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseStore) GetResponse(ctx context.Context, formID, id string) (*models.Response, error) {
	args := m.Called(ctx, formID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

type MockWebhookLogStore struct {
	mock.Mock
}

func (m *MockWebhookLogStore) CreateWebhookLog(ctx context.Context, log *models.WebhookLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockWebhookLogStore) ListWebhookLogs(ctx context.Context, formID string, filter models.WebhookLogFilter) ([]*models.WebhookLog, error) {
	args := m.Called(ctx, formID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WebhookLog), args.Error(1)
}

func (m *MockWebhookLogStore) WebhookLogStats(ctx context.Context, formID string) (*models.WebhookLogStats, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookLogStats), args.Error(1)
}

func (m *MockWebhookLogStore) DeleteWebhookLogs(ctx context.Context, formID string) (int64, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(int64), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Trigger(ctx context.Context, form *models.Form, response *models.Response, event models.WebhookEvent) []webhooks.Delivery {
	args := m.Called(ctx, form, response, event)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]webhooks.Delivery)
}

func (m *MockDispatcher) Test(ctx context.Context, webhook models.Webhook, formID, formTitle string) webhooks.Result {
	args := m.Called(ctx, webhook, formID, formTitle)
	return args.Get(0).(webhooks.Result)
}

// feedbackForm is a two-step form: q2 is required and shown only when q1 is "no".
func feedbackForm() *models.Form {
	return &models.Form{
		ID:      "form-1",
		OwnerID: "owner@example.com",
		Title:   "Customer Feedback",
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionYesNo, Title: "Happy?", Required: true},
			{
				ID: "q2", Type: models.QuestionLongText, Title: "What went wrong?", Required: true,
				Logic: &models.LogicRule{
					Conditions: []models.LogicCondition{
						{QuestionID: "q1", Operator: models.OperatorEquals, Value: models.TextAnswer("no")},
					},
					ConditionLogic: models.ConditionLogicAnd,
					Action:         models.RuleActionShow,
				},
			},
			{ID: "q3", Type: models.QuestionRating, Title: "Rate us"},
		},
		Settings: models.FormSettings{Webhooks: []models.Webhook{
			{ID: "wh-1", URL: "https://hooks.example.com/a", Enabled: true,
				Events: []models.WebhookEvent{models.EventResponseCreated, models.EventResponseUpdated}},
			{ID: "wh-off", URL: "https://hooks.example.com/b", Enabled: false,
				Events: []models.WebhookEvent{models.EventResponseCreated}},
		}},
	}
}
