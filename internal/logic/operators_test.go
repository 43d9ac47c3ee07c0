package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formrelay/backend/pkg/models"
)

func TestQuestionTypes(t *testing.T) {
	types := QuestionTypes()
	assert.Len(t, types, 22)
	for _, qt := range types {
		assert.True(t, IsQuestionType(qt), qt)
	}
	assert.False(t, IsQuestionType("hologram"))
}

func TestOperatorsForQuestionType(t *testing.T) {
	assert.Contains(t, OperatorsForQuestionType(models.QuestionShortText), models.OperatorContains)
	assert.NotContains(t, OperatorsForQuestionType(models.QuestionShortText), models.OperatorGreaterThan)
	assert.Contains(t, OperatorsForQuestionType(models.QuestionRating), models.OperatorGreaterThan)
	assert.Equal(t, []models.Operator{models.OperatorIsEmpty, models.OperatorIsNotEmpty},
		OperatorsForQuestionType(models.QuestionFileUpload))
	assert.Empty(t, OperatorsForQuestionType(models.QuestionStatement))
	assert.Equal(t, OperatorsForQuestionType(models.QuestionShortText), OperatorsForQuestionType("unknown"))
}

func TestOperatorsForQuestionType_ReturnsCopy(t *testing.T) {
	ops := OperatorsForQuestionType(models.QuestionEmail)
	ops[0] = "mutated"
	assert.Equal(t, models.OperatorEquals, OperatorsForQuestionType(models.QuestionEmail)[0])
}

func TestOperatorRequiresValue(t *testing.T) {
	assert.False(t, OperatorRequiresValue(models.OperatorIsEmpty))
	assert.False(t, OperatorRequiresValue(models.OperatorIsNotEmpty))
	for _, op := range []models.Operator{
		models.OperatorEquals, models.OperatorNotEquals, models.OperatorContains,
		models.OperatorNotContains, models.OperatorGreaterThan, models.OperatorLessThan,
	} {
		assert.True(t, OperatorRequiresValue(op), op)
		assert.True(t, IsValidOperator(op), op)
	}
	assert.False(t, IsValidOperator("between"))
}
