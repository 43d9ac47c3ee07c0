package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"formrelay/backend/internal/auth"
	"formrelay/backend/internal/services"
	"formrelay/backend/pkg/models"
)

// Server exposes form navigation and webhook tooling as MCP tools.
type Server struct {
	mcpServer  *server.MCPServer
	navigation *services.NavigationService
	admin      *services.WebhookAdminService
}

func NewServer(navigation *services.NavigationService, admin *services.WebhookAdminService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"FormRelay",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		navigation: navigation,
		admin:      admin,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_operators",
			mcp.WithDescription("List the logic operators available for a question type"),
			mcp.WithString("question_type", mcp.Required(), mcp.Description("Question type, e.g. short_text or rating")),
		),
		s.handleListOperators,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"next_question",
			mcp.WithDescription("Compute where a respondent lands when moving through a form"),
			mcp.WithString("form_id", mcp.Required(), mcp.Description("The ID of the form")),
			mcp.WithNumber("current_index", mcp.Required(), mcp.Description("Index of the question currently shown")),
			mcp.WithString("direction", mcp.Enum(string(services.DirectionNext), string(services.DirectionPrevious)),
				mcp.Description("next (default) or previous")),
			mcp.WithObject("answers", mcp.Description("Answers so far, keyed by question id")),
		),
		s.handleNextQuestion,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"test_webhook",
			mcp.WithDescription("Send a sample payload to one of your form's webhooks"),
			mcp.WithString("form_id", mcp.Required(), mcp.Description("The ID of the form")),
			mcp.WithString("webhook_id", mcp.Required(), mcp.Description("The ID of the webhook")),
		),
		s.handleTestWebhook,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_webhook_logs",
			mcp.WithDescription("List recent webhook deliveries of your form with totals"),
			mcp.WithString("form_id", mcp.Required(), mcp.Description("The ID of the form")),
			mcp.WithString("status", mcp.Enum(string(models.DeliverySuccess), string(models.DeliveryFailed), string(models.DeliveryPending)),
				mcp.Description("Only deliveries with this status")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of logs (default 50)")),
		),
		s.handleListWebhookLogs,
	)
}

func (s *Server) handleListOperators(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qt, err := request.RequireString("question_type")
	if err != nil || qt == "" {
		return mcp.NewToolResultError("Missing required parameter: question_type"), nil
	}

	ops, err := s.navigation.Operators(models.QuestionType(qt))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list operators: %v", err)), nil
	}
	return jsonResult(ops)
}

func (s *Server) handleNextQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := request.RequireString("form_id")
	if err != nil || formID == "" {
		return mcp.NewToolResultError("Missing required parameter: form_id"), nil
	}
	current, err := request.RequireInt("current_index")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: current_index"), nil
	}
	direction := services.Direction(request.GetString("direction", string(services.DirectionNext)))

	answers, err := answersArgument(request.GetArguments()["answers"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid answers: %v", err)), nil
	}

	result, err := s.navigation.Navigate(ctx, formID, current, direction, answers)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to navigate: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleTestWebhook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := request.RequireString("form_id")
	if err != nil || formID == "" {
		return mcp.NewToolResultError("Missing required parameter: form_id"), nil
	}
	webhookID, err := request.RequireString("webhook_id")
	if err != nil || webhookID == "" {
		return mcp.NewToolResultError("Missing required parameter: webhook_id"), nil
	}

	result, err := s.admin.TestWebhook(ctx, auth.OwnerFromContext(ctx), formID, webhookID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to test webhook: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleListWebhookLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formID, err := request.RequireString("form_id")
	if err != nil || formID == "" {
		return mcp.NewToolResultError("Missing required parameter: form_id"), nil
	}
	filter := models.WebhookLogFilter{
		Status: models.DeliveryStatus(request.GetString("status", "")),
		Limit:  request.GetInt("limit", 0),
	}

	page, err := s.admin.ListLogs(ctx, auth.OwnerFromContext(ctx), formID, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list webhook logs: %v", err)), nil
	}
	return jsonResult(page)
}

func answersArgument(raw any) (models.Answers, error) {
	if raw == nil {
		return models.Answers{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("answers must be an object")
	}
	a, err := models.AnswerFromValue(obj)
	if err != nil {
		return nil, err
	}
	return models.Answers(a.(models.ObjectAnswer)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers registers the SSE transport on mux. Every MCP request
// passes through authenticate, which places the caller's identity in the
// context seen by owner-only tools.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer, authenticate func(http.Handler) http.Handler) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	messages := sseServer.MessageHandler()

	// POST /mcp is an alias of the message endpoint; the SSE server itself
	// only answers under its base path.
	mux.Handle("/mcp", authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		messages.ServeHTTP(w, r)
	})))

	mux.Handle("/mcp/sse", authenticate(sseServer.SSEHandler()))
	mux.Handle("/mcp/message", authenticate(messages))
}
