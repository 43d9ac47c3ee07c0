package models

import "time"

// AnalyticsEventType names a respondent interaction.
type AnalyticsEventType string

const (
	AnalyticsFormView     AnalyticsEventType = "form_view"
	AnalyticsQuestionView AnalyticsEventType = "question_view"
	AnalyticsAnswerChange AnalyticsEventType = "answer_change"
	AnalyticsFormSubmit   AnalyticsEventType = "form_submit"
)

// Valid reports whether t is a known event type.
func (t AnalyticsEventType) Valid() bool {
	switch t {
	case AnalyticsFormView, AnalyticsQuestionView, AnalyticsAnswerChange, AnalyticsFormSubmit:
		return true
	}
	return false
}

// AnalyticsEvent is one tracked interaction within a form-filling session.
type AnalyticsEvent struct {
	ID         string             `json:"id" db:"id"`
	SessionID  string             `json:"session_id" db:"session_id"`
	FormID     string             `json:"form_id" db:"form_id"`
	Type       AnalyticsEventType `json:"type" db:"event_type"`
	QuestionID string             `json:"question_id,omitempty" db:"question_id"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}
