package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formrelay/backend/internal/logic"
	"formrelay/backend/pkg/models"
)

func TestDemoFormsAreValid(t *testing.T) {
	forms, err := loadDemoForms("seed@example.com")
	require.NoError(t, err)
	require.Len(t, forms, 2)

	for _, f := range forms {
		_, err := uuid.Parse(f.ID)
		assert.NoError(t, err, f.Title)
		assert.Equal(t, "seed@example.com", f.OwnerID)

		seen := map[string]bool{}
		for _, q := range f.Questions {
			assert.True(t, logic.IsQuestionType(q.Type), "%s: %s", f.Title, q.ID)
			if q.Logic != nil {
				for _, c := range q.Logic.Conditions {
					assert.True(t, seen[c.QuestionID], "%s: %s depends on later question %s", f.Title, q.ID, c.QuestionID)
					assert.Contains(t, logic.OperatorsForQuestionType(questionType(f, c.QuestionID)), c.Operator)
				}
			}
			seen[q.ID] = true
		}
		for _, w := range f.Settings.Webhooks {
			assert.NotEmpty(t, w.Events, w.ID)
		}
	}
}

func TestValidateForm(t *testing.T) {
	valid := &models.Form{Questions: []models.Question{
		{ID: "q1", Type: models.QuestionYesNo},
		{ID: "q2", Type: models.QuestionLongText, Logic: &models.LogicRule{
			Conditions: []models.LogicCondition{{QuestionID: "q1", Operator: models.OperatorEquals, Value: models.TextAnswer("no")}},
		}},
	}}
	assert.NoError(t, validateForm(valid))

	badType := &models.Form{Questions: []models.Question{{ID: "q1", Type: "slider"}}}
	assert.ErrorContains(t, validateForm(badType), `unknown type "slider"`)

	badOperator := &models.Form{Questions: []models.Question{
		{ID: "q1", Type: models.QuestionNumber},
		{ID: "q2", Type: models.QuestionShortText, Logic: &models.LogicRule{
			Conditions: []models.LogicCondition{{QuestionID: "q1", Operator: "between"}},
		}},
	}}
	assert.ErrorContains(t, validateForm(badOperator), `question q2: unknown operator "between"`)
}

func TestDemoFeedbackBranches(t *testing.T) {
	forms, err := loadDemoForms("seed@example.com")
	require.NoError(t, err)
	feedback := forms[0]

	happy := models.Answers{"satisfied": models.TextAnswer("yes"), "rating": models.NumberAnswer(5)}
	assert.Equal(t, []string{"satisfied", "rating", "thanks"}, ids(logic.VisibleQuestions(feedback.Questions, happy)))

	unhappy := models.Answers{"satisfied": models.TextAnswer("no"), "problem": models.TextAnswer("Other")}
	assert.Equal(t,
		[]string{"satisfied", "problem", "details", "rating", "follow_up", "thanks"},
		ids(logic.VisibleQuestions(feedback.Questions, unhappy)))
	assert.Equal(t, []string{"problem"}, logic.MissingRequired(feedback.Questions, models.Answers{"satisfied": models.TextAnswer("no")}))
}

func questionType(f *models.Form, id string) models.QuestionType {
	for _, q := range f.Questions {
		if q.ID == id {
			return q.Type
		}
	}
	return ""
}

func ids(questions []models.Question) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}
