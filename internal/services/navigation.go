package services

import (
	"context"

	"formrelay/backend/internal/logic"
	"formrelay/backend/internal/repository"
	"formrelay/backend/pkg/models"
)

// Direction is the way a respondent moves through a form.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// NavigationResult is where a respondent lands after moving.
type NavigationResult struct {
	Index      int      `json:"index"`
	Done       bool     `json:"done"`
	QuestionID string   `json:"question_id,omitempty"`
	VisibleIDs []string `json:"visible_ids"`
	Progress   float64  `json:"progress"`
}

// OperatorInfo describes a comparison offered for a question type.
type OperatorInfo struct {
	Operator      models.Operator `json:"operator"`
	RequiresValue bool            `json:"requires_value"`
}

// NavigationService answers navigation questions for respondents.
type NavigationService struct {
	forms repository.FormStore
}

// NewNavigationService creates a NavigationService reading forms from forms.
func NewNavigationService(forms repository.FormStore) *NavigationService {
	return &NavigationService{forms: forms}
}

// Navigate moves from current in the given direction under the given answers.
func (s *NavigationService) Navigate(ctx context.Context, formID string, current int, dir Direction, answers models.Answers) (*NavigationResult, error) {
	if dir != DirectionNext && dir != DirectionPrevious {
		return nil, ErrInvalidDirection
	}
	form, err := loadForm(ctx, s.forms, formID)
	if err != nil {
		return nil, err
	}

	questions := form.Questions
	var index int
	if dir == DirectionNext {
		index = logic.NextQuestionIndex(current, questions, answers)
	} else {
		index = logic.PreviousQuestionIndex(current, questions, answers)
	}

	visible := logic.VisibleQuestions(questions, answers)
	ids := make([]string, 0, len(visible))
	for _, q := range visible {
		ids = append(ids, q.ID)
	}

	result := &NavigationResult{
		Index:      index,
		Done:       index >= len(questions),
		VisibleIDs: ids,
		Progress:   logic.Progress(index, questions, answers),
	}
	if !result.Done && index >= 0 {
		result.QuestionID = questions[index].ID
	}
	return result, nil
}

// Operators lists the comparisons available for a question type.
func (s *NavigationService) Operators(t models.QuestionType) ([]OperatorInfo, error) {
	if !logic.IsQuestionType(t) {
		return nil, ErrUnknownQuestionType
	}
	ops := logic.OperatorsForQuestionType(t)
	infos := make([]OperatorInfo, 0, len(ops))
	for _, op := range ops {
		infos = append(infos, OperatorInfo{Operator: op, RequiresValue: logic.OperatorRequiresValue(op)})
	}
	return infos, nil
}
