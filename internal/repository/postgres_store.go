package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"formrelay/backend/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of Repository.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Repository = (*PostgresStore)(nil)

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SQLSTATE codes for a dangling foreign key and a malformed uuid literal.
const (
	codeForeignKeyViolation = "23503"
	codeInvalidTextInput    = "22P02"
)

// notFound maps lookups that cannot match a row to ErrNotFound: no rows, a
// reference to a missing parent, or an id that is not a valid uuid.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation, codeInvalidTextInput:
			return ErrNotFound
		}
	}
	return err
}

// GetForm retrieves a form by its ID.
func (s *PostgresStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	var (
		form      models.Form
		questions []byte
		settings  []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, title, description, questions, settings, created_at, updated_at
		 FROM forms WHERE id = $1`, id).
		Scan(&form.ID, &form.OwnerID, &form.Title, &form.Description, &questions, &settings, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(questions, &form.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of form %s: %w", id, err)
	}
	if err := json.Unmarshal(settings, &form.Settings); err != nil {
		return nil, fmt.Errorf("decode settings of form %s: %w", id, err)
	}
	return &form, nil
}

// SaveForm inserts a form or replaces the stored definition.
func (s *PostgresStore) SaveForm(ctx context.Context, form *models.Form) error {
	questions, err := json.Marshal(form.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	settings, err := json.Marshal(form.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	now := time.Now().UTC()
	if form.CreatedAt.IsZero() {
		form.CreatedAt = now
	}
	form.UpdatedAt = now

	_, err = s.db.Exec(ctx,
		`INSERT INTO forms (id, owner_id, title, description, questions, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   owner_id = EXCLUDED.owner_id,
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   questions = EXCLUDED.questions,
		   settings = EXCLUDED.settings,
		   updated_at = EXCLUDED.updated_at`,
		form.ID, form.OwnerID, form.Title, form.Description, questions, settings, form.CreatedAt, form.UpdatedAt)
	return err
}

// CreateResponse stores a new response.
func (s *PostgresStore) CreateResponse(ctx context.Context, response *models.Response) error {
	answers, err := encodeAnswers(response.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO responses (id, form_id, answers, submitted_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		response.ID, response.FormID, answers, response.SubmittedAt, response.UpdatedAt)
	return err
}

// UpdateResponse replaces the answers of an existing response.
func (s *PostgresStore) UpdateResponse(ctx context.Context, response *models.Response) error {
	answers, err := encodeAnswers(response.Answers)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE responses SET answers = $1, updated_at = $2 WHERE id = $3 AND form_id = $4`,
		answers, response.UpdatedAt, response.ID, response.FormID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetResponse retrieves a response of a form.
func (s *PostgresStore) GetResponse(ctx context.Context, formID, id string) (*models.Response, error) {
	var (
		response models.Response
		answers  []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, form_id, answers, submitted_at, updated_at FROM responses WHERE id = $1 AND form_id = $2`,
		id, formID).
		Scan(&response.ID, &response.FormID, &answers, &response.SubmittedAt, &response.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(answers, &response.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of response %s: %w", id, err)
	}
	return &response, nil
}

func encodeAnswers(a models.Answers) ([]byte, error) {
	if a == nil {
		a = models.Answers{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return b, nil
}

// CreateWebhookLog appends a delivery attempt.
func (s *PostgresStore) CreateWebhookLog(ctx context.Context, log *models.WebhookLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO webhook_logs (id, form_id, response_id, webhook_id, webhook_url, event_type, status,
		   status_code, request_body, response_body, error_message, duration_ms, retry_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		log.ID, log.FormID, log.ResponseID, log.WebhookID, log.WebhookURL, string(log.EventType), string(log.Status),
		log.StatusCode, []byte(log.RequestBody), log.ResponseBody, log.ErrorMessage, log.DurationMs, log.RetryCount, log.CreatedAt)
	return err
}

const defaultLogLimit = 50

// ListWebhookLogs returns a form's logs, newest first.
func (s *PostgresStore) ListWebhookLogs(ctx context.Context, formID string, filter models.WebhookLogFilter) ([]*models.WebhookLog, error) {
	var (
		where = []string{"form_id = $1"}
		args  = []any{formID}
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.WebhookID != "" {
		args = append(args, filter.WebhookID)
		where = append(where, fmt.Sprintf("webhook_id = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	args = append(args, limit, max(filter.Offset, 0))

	query := fmt.Sprintf(
		`SELECT id, form_id, response_id, webhook_id, webhook_url, event_type, status, status_code,
		   request_body, response_body, error_message, duration_ms, retry_count, created_at
		 FROM webhook_logs WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.WebhookLog{}
	for rows.Next() {
		var (
			log         models.WebhookLog
			requestBody []byte
		)
		err := rows.Scan(&log.ID, &log.FormID, &log.ResponseID, &log.WebhookID, &log.WebhookURL, &log.EventType,
			&log.Status, &log.StatusCode, &requestBody, &log.ResponseBody, &log.ErrorMessage, &log.DurationMs,
			&log.RetryCount, &log.CreatedAt)
		if err != nil {
			return nil, err
		}
		log.RequestBody = requestBody
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}

// WebhookLogStats counts a form's logs by status.
func (s *PostgresStore) WebhookLogStats(ctx context.Context, formID string) (*models.WebhookLogStats, error) {
	var stats models.WebhookLogStats
	err := s.db.QueryRow(ctx,
		`SELECT count(*),
		   count(*) FILTER (WHERE status = 'success'),
		   count(*) FILTER (WHERE status = 'failed'),
		   count(*) FILTER (WHERE status = 'pending')
		 FROM webhook_logs WHERE form_id = $1`, formID).
		Scan(&stats.Total, &stats.Success, &stats.Failed, &stats.Pending)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// DeleteWebhookLogs removes every log of a form.
func (s *PostgresStore) DeleteWebhookLogs(ctx context.Context, formID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhook_logs WHERE form_id = $1`, formID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateAnalyticsEvent stores one analytics event.
func (s *PostgresStore) CreateAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	var questionID *string
	if event.QuestionID != "" {
		questionID = &event.QuestionID
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO analytics_events (id, session_id, form_id, event_type, question_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.SessionID, event.FormID, string(event.Type), questionID, event.CreatedAt)
	return notFound(err)
}
