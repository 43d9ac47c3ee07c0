package logic

import "formrelay/backend/pkg/models"

var (
	textOperators = []models.Operator{
		models.OperatorEquals, models.OperatorNotEquals,
		models.OperatorContains, models.OperatorNotContains,
		models.OperatorIsEmpty, models.OperatorIsNotEmpty,
	}
	numericOperators = []models.Operator{
		models.OperatorEquals, models.OperatorNotEquals,
		models.OperatorGreaterThan, models.OperatorLessThan,
		models.OperatorIsEmpty, models.OperatorIsNotEmpty,
	}
	choiceOperators = []models.Operator{
		models.OperatorEquals, models.OperatorNotEquals,
		models.OperatorIsEmpty, models.OperatorIsNotEmpty,
	}
	multiChoiceOperators = []models.Operator{
		models.OperatorContains, models.OperatorNotContains,
		models.OperatorIsEmpty, models.OperatorIsNotEmpty,
	}
	presenceOperators = []models.Operator{
		models.OperatorIsEmpty, models.OperatorIsNotEmpty,
	}
)

var operatorsByType = map[models.QuestionType][]models.Operator{
	models.QuestionShortText:      textOperators,
	models.QuestionLongText:       textOperators,
	models.QuestionEmail:          textOperators,
	models.QuestionPhone:          textOperators,
	models.QuestionURL:            textOperators,
	models.QuestionNumber:         numericOperators,
	models.QuestionRating:         numericOperators,
	models.QuestionOpinionScale:   numericOperators,
	models.QuestionNPS:            numericOperators,
	models.QuestionMultipleChoice: choiceOperators,
	models.QuestionDropdown:       choiceOperators,
	models.QuestionYesNo:          choiceOperators,
	models.QuestionDate:           choiceOperators,
	models.QuestionTime:           choiceOperators,
	models.QuestionCheckboxes:     multiChoiceOperators,
	models.QuestionRanking:        multiChoiceOperators,
	models.QuestionMatrix:         presenceOperators,
	models.QuestionFileUpload:     presenceOperators,
	models.QuestionSignature:      presenceOperators,
	models.QuestionAddress:        presenceOperators,
	models.QuestionPayment:        presenceOperators,
	models.QuestionStatement:      nil,
}

// questionTypes keeps the builder's palette order.
var questionTypes = []models.QuestionType{
	models.QuestionShortText, models.QuestionLongText, models.QuestionEmail,
	models.QuestionNumber, models.QuestionPhone, models.QuestionURL,
	models.QuestionMultipleChoice, models.QuestionCheckboxes, models.QuestionDropdown,
	models.QuestionYesNo, models.QuestionRating, models.QuestionOpinionScale,
	models.QuestionNPS, models.QuestionRanking, models.QuestionMatrix,
	models.QuestionDate, models.QuestionTime, models.QuestionFileUpload,
	models.QuestionSignature, models.QuestionAddress, models.QuestionPayment,
	models.QuestionStatement,
}

// QuestionTypes lists every supported question type.
func QuestionTypes() []models.QuestionType {
	return append([]models.QuestionType(nil), questionTypes...)
}

// IsQuestionType reports whether t is a supported question type.
func IsQuestionType(t models.QuestionType) bool {
	_, ok := operatorsByType[t]
	return ok
}

// OperatorsForQuestionType returns the operators the rule builder offers for
// conditions on a question of type t. Unknown types get the text operators.
func OperatorsForQuestionType(t models.QuestionType) []models.Operator {
	ops, ok := operatorsByType[t]
	if !ok {
		ops = textOperators
	}
	return append([]models.Operator(nil), ops...)
}

// OperatorRequiresValue reports whether op compares against a value.
func OperatorRequiresValue(op models.Operator) bool {
	return op != models.OperatorIsEmpty && op != models.OperatorIsNotEmpty
}

// IsValidOperator reports whether op is one of the known operators.
func IsValidOperator(op models.Operator) bool {
	switch op {
	case models.OperatorEquals, models.OperatorNotEquals,
		models.OperatorContains, models.OperatorNotContains,
		models.OperatorGreaterThan, models.OperatorLessThan,
		models.OperatorIsEmpty, models.OperatorIsNotEmpty:
		return true
	}
	return false
}
