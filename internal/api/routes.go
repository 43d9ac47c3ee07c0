package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ListWebhookLogsParams defines parameters for ListWebhookLogs.
type ListWebhookLogsParams struct {
	Status    *string
	WebhookID *string
	Limit     *int
	Offset    *int
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /healthz)
	GetHealth(ctx echo.Context) error
	// (GET /api/v1/question-types/{type}/operators)
	ListOperators(ctx echo.Context, questionType string) error
	// (POST /api/v1/forms/{formId}/navigate)
	NavigateForm(ctx echo.Context, formID openapi_types.UUID) error
	// (POST /api/v1/forms/{formId}/responses)
	SubmitResponse(ctx echo.Context, formID openapi_types.UUID) error
	// (PUT /api/v1/forms/{formId}/responses/{responseId})
	UpdateResponse(ctx echo.Context, formID openapi_types.UUID, responseID openapi_types.UUID) error
	// (POST /api/v1/forms/{formId}/events)
	TrackEvent(ctx echo.Context, formID openapi_types.UUID) error
	// (POST /api/v1/forms/{formId}/webhooks/{webhookId}/test)
	TestWebhook(ctx echo.Context, formID openapi_types.UUID, webhookID string) error
	// (GET /api/v1/forms/{formId}/webhook-logs)
	ListWebhookLogs(ctx echo.Context, formID openapi_types.UUID, params ListWebhookLogsParams) error
	// (DELETE /api/v1/forms/{formId}/webhook-logs)
	DeleteWebhookLogs(ctx echo.Context, formID openapi_types.UUID) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func pathParam(ctx echo.Context, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func queryParam(ctx echo.Context, name string, dest any) error {
	err := runtime.BindQueryParameter("form", true, false, name, ctx.QueryParams(), dest)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func (w *ServerInterfaceWrapper) GetHealth(ctx echo.Context) error {
	return w.Handler.GetHealth(ctx)
}

func (w *ServerInterfaceWrapper) ListOperators(ctx echo.Context) error {
	var questionType string
	if err := pathParam(ctx, "type", &questionType); err != nil {
		return err
	}
	return w.Handler.ListOperators(ctx, questionType)
}

func (w *ServerInterfaceWrapper) NavigateForm(ctx echo.Context) error {
	var formID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}
	return w.Handler.NavigateForm(ctx, formID)
}

func (w *ServerInterfaceWrapper) SubmitResponse(ctx echo.Context) error {
	var formID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}
	return w.Handler.SubmitResponse(ctx, formID)
}

func (w *ServerInterfaceWrapper) UpdateResponse(ctx echo.Context) error {
	var formID, responseID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}
	if err := pathParam(ctx, "responseId", &responseID); err != nil {
		return err
	}
	return w.Handler.UpdateResponse(ctx, formID, responseID)
}

func (w *ServerInterfaceWrapper) TrackEvent(ctx echo.Context) error {
	var formID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}
	return w.Handler.TrackEvent(ctx, formID)
}

func (w *ServerInterfaceWrapper) TestWebhook(ctx echo.Context) error {
	var formID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}
	var webhookID string
	if err := pathParam(ctx, "webhookId", &webhookID); err != nil {
		return err
	}
	return w.Handler.TestWebhook(ctx, formID, webhookID)
}

func (w *ServerInterfaceWrapper) ListWebhookLogs(ctx echo.Context) error {
	var formID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}

	var params ListWebhookLogsParams
	if err := queryParam(ctx, "status", &params.Status); err != nil {
		return err
	}
	if err := queryParam(ctx, "webhook_id", &params.WebhookID); err != nil {
		return err
	}
	if err := queryParam(ctx, "limit", &params.Limit); err != nil {
		return err
	}
	if err := queryParam(ctx, "offset", &params.Offset); err != nil {
		return err
	}
	return w.Handler.ListWebhookLogs(ctx, formID, params)
}

func (w *ServerInterfaceWrapper) DeleteWebhookLogs(ctx echo.Context) error {
	var formID openapi_types.UUID
	if err := pathParam(ctx, "formId", &formID); err != nil {
		return err
	}
	return w.Handler.DeleteWebhookLogs(ctx, formID)
}

// EchoRouter is the subset of *echo.Echo and *echo.Group used for routing.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the router. Owner-only routes
// run behind requireOwner.
func RegisterHandlers(router EchoRouter, si ServerInterface, requireOwner echo.MiddlewareFunc) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.GET("/healthz", w.GetHealth)
	router.GET("/api/v1/question-types/:type/operators", w.ListOperators)
	router.POST("/api/v1/forms/:formId/navigate", w.NavigateForm)
	router.POST("/api/v1/forms/:formId/responses", w.SubmitResponse)
	router.PUT("/api/v1/forms/:formId/responses/:responseId", w.UpdateResponse)
	router.POST("/api/v1/forms/:formId/events", w.TrackEvent)
	router.POST("/api/v1/forms/:formId/webhooks/:webhookId/test", w.TestWebhook, requireOwner)
	router.GET("/api/v1/forms/:formId/webhook-logs", w.ListWebhookLogs, requireOwner)
	router.DELETE("/api/v1/forms/:formId/webhook-logs", w.DeleteWebhookLogs, requireOwner)
}
