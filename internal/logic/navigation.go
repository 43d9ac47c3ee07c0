package logic

import "formrelay/backend/pkg/models"

// NextQuestionIndex returns the index of the question to present after
// current. A satisfied rule with a jump target on the current question wins;
// otherwise the next visible question is returned. len(questions) means the
// form is complete and should be submitted.
func NextQuestionIndex(current int, questions []models.Question, answers models.Answers) int {
	if current >= 0 && current < len(questions) {
		rule := questions[current].Logic
		if rule != nil && rule.JumpToQuestionID != "" && EvaluateRule(rule, answers, questions) {
			if target := indexOf(questions, rule.JumpToQuestionID); target >= 0 {
				return target
			}
		}
	}

	start := current + 1
	if start < 0 {
		start = 0
	}
	for i := start; i < len(questions); i++ {
		if ShouldShowQuestion(questions[i], answers, questions) {
			return i
		}
	}
	return len(questions)
}

// PreviousQuestionIndex returns the nearest visible question before current,
// or 0 when there is none. The first question is returned even if it is hidden.
func PreviousQuestionIndex(current int, questions []models.Question, answers models.Answers) int {
	if current > len(questions) {
		current = len(questions)
	}
	for i := current - 1; i >= 0; i-- {
		if ShouldShowQuestion(questions[i], answers, questions) {
			return i
		}
	}
	return 0
}

// VisibleQuestions filters questions down to the ones currently shown.
func VisibleQuestions(questions []models.Question, answers models.Answers) []models.Question {
	visible := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if ShouldShowQuestion(q, answers, questions) {
			visible = append(visible, q)
		}
	}
	return visible
}

// Progress returns the fraction of visible questions up to and including
// current, in [0, 1]. A current index at or past the end reports 1.
func Progress(current int, questions []models.Question, answers models.Answers) float64 {
	if current >= len(questions) {
		return 1
	}
	if current < 0 {
		return 0
	}

	total, reached := 0, 0
	for i, q := range questions {
		if !ShouldShowQuestion(q, answers, questions) {
			continue
		}
		total++
		if i <= current {
			reached++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(reached) / float64(total)
}

// MissingRequired returns the ids of required questions that are visible but
// have no answer. Hidden questions are never required.
func MissingRequired(questions []models.Question, answers models.Answers) []string {
	var missing []string
	for _, q := range questions {
		if !q.Required || q.Type == models.QuestionStatement {
			continue
		}
		if !ShouldShowQuestion(q, answers, questions) {
			continue
		}
		if isEmpty(answers[q.ID]) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}
