package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"formrelay/backend/internal/analytics"
	"formrelay/backend/internal/auth"
	"formrelay/backend/internal/services"
	"formrelay/backend/pkg/models"
)

const (
	serviceName    = "formrelay"
	serviceVersion = "1.0.0"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Logger is the subset of the application logger used by the handlers.
type Logger interface {
	Error(msg string, args ...any)
}

// Handler implements ServerInterface on top of the services.
type Handler struct {
	db          Pinger
	navigation  *services.NavigationService
	submissions *services.SubmissionService
	admin       *services.WebhookAdminService
	tracker     *analytics.Tracker
	logger      Logger
}

var _ ServerInterface = (*Handler)(nil)

// NewHandler creates a new Handler with required dependencies
func NewHandler(
	db Pinger,
	navigation *services.NavigationService,
	submissions *services.SubmissionService,
	admin *services.WebhookAdminService,
	tracker *analytics.Tracker,
	logger Logger,
) *Handler {
	return &Handler{
		db:          db,
		navigation:  navigation,
		submissions: submissions,
		admin:       admin,
		tracker:     tracker,
		logger:      logger,
	}
}

// GetHealth reports service status along with database reachability.
func (h *Handler) GetHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"database": "ok"},
	}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		status.Status = "degraded"
		status.Checks["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (h *Handler) ListOperators(c echo.Context, questionType string) error {
	ops, err := h.navigation.Operators(models.QuestionType(questionType))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ops)
}

type navigateRequest struct {
	CurrentIndex int                `json:"current_index"`
	Direction    services.Direction `json:"direction"`
	Answers      models.Answers     `json:"answers"`
}

func (h *Handler) NavigateForm(c echo.Context, formID openapi_types.UUID) error {
	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Direction == "" {
		req.Direction = services.DirectionNext
	}
	result, err := h.navigation.Navigate(c.Request().Context(), formID.String(), req.CurrentIndex, req.Direction, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type answersRequest struct {
	Answers models.Answers `json:"answers"`
}

func (h *Handler) SubmitResponse(c echo.Context, formID openapi_types.UUID) error {
	var req answersRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	response, err := h.submissions.Submit(c.Request().Context(), formID.String(), req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, response)
}

func (h *Handler) UpdateResponse(c echo.Context, formID, responseID openapi_types.UUID) error {
	var req answersRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	response, err := h.submissions.Update(c.Request().Context(), formID.String(), responseID.String(), req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response)
}

type eventRequest struct {
	SessionID  string                    `json:"session_id"`
	Type       models.AnalyticsEventType `json:"type"`
	QuestionID string                    `json:"question_id"`
}

func (h *Handler) TrackEvent(c echo.Context, formID openapi_types.UUID) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	session := analytics.Session{ID: req.SessionID, FormID: formID.String()}
	if session.ID == "" && req.Type == models.AnalyticsFormView {
		// a form view without a session opens one; the client reuses the returned id
		session = analytics.NewSession(formID.String())
	}
	event, err := h.tracker.Track(c.Request().Context(), session, req.Type, req.QuestionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, event)
}

func (h *Handler) TestWebhook(c echo.Context, formID openapi_types.UUID, webhookID string) error {
	ctx := c.Request().Context()
	result, err := h.admin.TestWebhook(ctx, auth.OwnerFromContext(ctx), formID.String(), webhookID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListWebhookLogs(c echo.Context, formID openapi_types.UUID, params ListWebhookLogsParams) error {
	var filter models.WebhookLogFilter
	if params.Status != nil {
		filter.Status = models.DeliveryStatus(*params.Status)
	}
	if params.WebhookID != nil {
		filter.WebhookID = *params.WebhookID
	}
	if params.Limit != nil {
		filter.Limit = *params.Limit
	}
	if params.Offset != nil {
		filter.Offset = *params.Offset
	}

	ctx := c.Request().Context()
	page, err := h.admin.ListLogs(ctx, auth.OwnerFromContext(ctx), formID.String(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) DeleteWebhookLogs(c echo.Context, formID openapi_types.UUID) error {
	ctx := c.Request().Context()
	n, err := h.admin.DeleteLogs(ctx, auth.OwnerFromContext(ctx), formID.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": n})
}

// problemFor maps an error to an RFC 7807 problem.
func problemFor(err error) models.ProblemDetails {
	var validation *services.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validation):
		p := problem(http.StatusUnprocessableEntity, "Missing required answers", err.Error())
		p.Missing = validation.Missing
		return p
	case errors.Is(err, services.ErrFormNotFound),
		errors.Is(err, services.ErrResponseNotFound),
		errors.Is(err, services.ErrWebhookNotFound),
		errors.Is(err, services.ErrUnknownQuestionType),
		errors.Is(err, analytics.ErrUnknownForm):
		return problem(http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, services.ErrForbidden):
		return problem(http.StatusForbidden, "Forbidden", "form is not owned by the caller")
	case errors.Is(err, services.ErrInvalidDirection),
		errors.Is(err, services.ErrInvalidFilter),
		errors.Is(err, analytics.ErrInvalidEvent),
		errors.Is(err, analytics.ErrMissingQuestion),
		errors.Is(err, analytics.ErrMissingSession):
		return problem(http.StatusBadRequest, "Bad Request", err.Error())
	case errors.As(err, &httpErr):
		detail := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		}
		return problem(httpErr.Code, http.StatusText(httpErr.Code), detail)
	default:
		return problem(http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
	}
}

func problem(status int, title, detail string) models.ProblemDetails {
	return models.ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// ProblemErrorHandler renders handler errors as application/problem+json.
// Unexpected errors are logged and reported without detail.
func ProblemErrorHandler(logger Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		p := problemFor(err)
		p.Instance = c.Request().URL.Path
		if p.Status >= http.StatusInternalServerError {
			logger.Error("Request failed", "method", c.Request().Method, "path", p.Instance, "error", err)
		}

		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(p.Status)
		} else {
			c.Response().WriteHeader(p.Status)
			err = c.Echo().JSONSerializer.Serialize(c, p, "")
		}
		if err != nil {
			logger.Error("Failed to write error response", "error", err)
		}
	}
}
