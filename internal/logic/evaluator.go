// Package logic decides which form questions are visible and where navigation
// goes next, based on the answers collected so far.
//
// Every function is total: a rule that references a deleted question or uses an
// unknown operator evaluates to true, so a broken rule never blocks navigation.
// Nothing here holds state, so all functions are safe for concurrent use.
package logic

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"formrelay/backend/pkg/models"
)

// EvaluateCondition reports whether condition holds for answers.
func EvaluateCondition(condition models.LogicCondition, answers models.Answers, questions []models.Question) bool {
	if indexOf(questions, condition.QuestionID) < 0 {
		return true
	}
	answer := answers[condition.QuestionID]

	switch condition.Operator {
	case models.OperatorEquals:
		return matches(answer, condition.Value)
	case models.OperatorNotEquals:
		return !matches(answer, condition.Value)
	case models.OperatorContains:
		// a contains test with nothing to look for is an incomplete rule
		return condition.Value == nil || contains(answer, condition.Value)
	case models.OperatorNotContains:
		return condition.Value == nil || !contains(answer, condition.Value)
	case models.OperatorGreaterThan:
		return toNumber(answer) > toNumber(condition.Value)
	case models.OperatorLessThan:
		return toNumber(answer) < toNumber(condition.Value)
	case models.OperatorIsEmpty:
		return isEmpty(answer)
	case models.OperatorIsNotEmpty:
		return !isEmpty(answer)
	default:
		return true
	}
}

// EvaluateRule combines the rule's conditions with its condition logic.
// A rule without conditions is satisfied.
func EvaluateRule(rule *models.LogicRule, answers models.Answers, questions []models.Question) bool {
	if rule == nil || len(rule.Conditions) == 0 {
		return true
	}

	if rule.ConditionLogic == models.ConditionLogicOr {
		for _, c := range rule.Conditions {
			if EvaluateCondition(c, answers, questions) {
				return true
			}
		}
		return false
	}

	for _, c := range rule.Conditions {
		if !EvaluateCondition(c, answers, questions) {
			return false
		}
	}
	return true
}

// ShouldShowQuestion reports whether question is currently visible. A show
// rule makes the question visible only when satisfied; a skip rule hides it
// when satisfied.
func ShouldShowQuestion(question models.Question, answers models.Answers, questions []models.Question) bool {
	if question.Logic == nil {
		return true
	}
	met := EvaluateRule(question.Logic, answers, questions)
	switch question.Logic.Action {
	case models.RuleActionShow:
		return met
	case models.RuleActionSkip:
		return !met
	default:
		return true
	}
}

func indexOf(questions []models.Question, id string) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func isEmpty(a models.Answer) bool {
	switch v := a.(type) {
	case nil:
		return true
	case models.TextAnswer:
		return v == ""
	case models.ListAnswer:
		return len(v) == 0
	default:
		return false
	}
}

// matches implements equals: list answers test membership, scalars compare by
// kind and value.
func matches(answer, value models.Answer) bool {
	if list, ok := answer.(models.ListAnswer); ok {
		for _, item := range list {
			if scalarEqual(item, value) {
				return true
			}
		}
		return false
	}
	return scalarEqual(answer, value)
}

func scalarEqual(a, b models.Answer) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case models.TextAnswer:
		y, ok := b.(models.TextAnswer)
		return ok && x == y
	case models.NumberAnswer:
		y, ok := b.(models.NumberAnswer)
		return ok && x == y
	case models.BoolAnswer:
		y, ok := b.(models.BoolAnswer)
		return ok && x == y
	default:
		return false
	}
}

// contains is a case-insensitive substring test for scalar answers and a
// case-insensitive member test for list answers.
func contains(answer, value models.Answer) bool {
	// Casers are stateful; one per call keeps evaluation goroutine-safe.
	fold := cases.Fold()
	needle := fold.String(stringify(value))
	switch v := answer.(type) {
	case nil:
		return false
	case models.ListAnswer:
		for _, item := range v {
			if fold.String(stringify(item)) == needle {
				return true
			}
		}
		return false
	case models.ObjectAnswer:
		return false
	default:
		return strings.Contains(fold.String(stringify(v)), needle)
	}
}

func stringify(a models.Answer) string {
	switch v := a.(type) {
	case models.TextAnswer:
		return string(v)
	case models.NumberAnswer:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case models.BoolAnswer:
		return strconv.FormatBool(bool(v))
	case models.ListAnswer:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// toNumber returns NaN for anything that is not a number, a numeric string
// or a boolean, which makes every ordering comparison false.
func toNumber(a models.Answer) float64 {
	switch v := a.(type) {
	case models.NumberAnswer:
		return float64(v)
	case models.TextAnswer:
		return parseNumber(string(v))
	case models.BoolAnswer:
		if v {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// parseNumber reads text the way browser clients coerce it: blank text is 0,
// 0x/0o/0b literals are integers and only "Infinity" spells an infinity.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		if strings.ContainsRune(s, '_') {
			return math.NaN()
		}
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	// ParseFloat also takes inf, nan, hex floats and digit separators.
	if strings.TrimLeft(s, "0123456789.eE+-") != "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}
