package webhooks

import (
	"bytes"
	"encoding/json"
	"time"

	"formrelay/backend/pkg/models"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Payload is the JSON document POSTed to webhook endpoints.
type Payload struct {
	Event     models.WebhookEvent `json:"event"`
	Timestamp string              `json:"timestamp"`
	Form      PayloadForm         `json:"form"`
	Response  PayloadResponse     `json:"response"`
}

// PayloadForm identifies the form that produced the event.
type PayloadForm struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PayloadResponse carries the submitted answers.
type PayloadResponse struct {
	ID          string         `json:"id"`
	Answers     models.Answers `json:"answers"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// NewPayload builds the payload shared by every recipient of one event.
func NewPayload(form *models.Form, response *models.Response, event models.WebhookEvent, now time.Time) Payload {
	answers := response.Answers
	if answers == nil {
		answers = models.Answers{}
	}
	return Payload{
		Event:     event,
		Timestamp: now.UTC().Format(timestampLayout),
		Form:      PayloadForm{ID: form.ID, Title: form.Title},
		Response: PayloadResponse{
			ID:          response.ID,
			Answers:     answers,
			SubmittedAt: response.SubmittedAt.UTC(),
		},
	}
}

// testPayload carries placeholder response data for connection tests.
func testPayload(formID, formTitle string, now time.Time) Payload {
	return Payload{
		Event:     models.EventResponseCreated,
		Timestamp: now.UTC().Format(timestampLayout),
		Form:      PayloadForm{ID: formID, Title: formTitle},
		Response: PayloadResponse{
			ID: "test-response-id",
			Answers: models.Answers{
				"test_question": models.TextAnswer("This is a test response"),
			},
			SubmittedAt: now.UTC(),
		},
	}
}

// Encode serializes the payload exactly as it is sent and signed. HTML
// characters are not escaped.
func (p Payload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
