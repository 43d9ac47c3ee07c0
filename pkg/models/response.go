package models

import "time"

// Response is one respondent's submission to a form.
type Response struct {
	ID          string    `json:"id"`
	FormID      string    `json:"form_id"`
	Answers     Answers   `json:"answers"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
