package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType is the type tag of a form field.
type QuestionType string

const (
	QuestionShortText      QuestionType = "short_text"
	QuestionLongText       QuestionType = "long_text"
	QuestionEmail          QuestionType = "email"
	QuestionNumber         QuestionType = "number"
	QuestionPhone          QuestionType = "phone"
	QuestionURL            QuestionType = "url"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckboxes     QuestionType = "checkboxes"
	QuestionDropdown       QuestionType = "dropdown"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionRating         QuestionType = "rating"
	QuestionOpinionScale   QuestionType = "opinion_scale"
	QuestionNPS            QuestionType = "nps"
	QuestionRanking        QuestionType = "ranking"
	QuestionMatrix         QuestionType = "matrix"
	QuestionDate           QuestionType = "date"
	QuestionTime           QuestionType = "time"
	QuestionFileUpload     QuestionType = "file_upload"
	QuestionSignature      QuestionType = "signature"
	QuestionAddress        QuestionType = "address"
	QuestionPayment        QuestionType = "payment"
	QuestionStatement      QuestionType = "statement"
)

// Operator is a comparison used by a LogicCondition.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
)

// ConditionLogic combines the results of a rule's conditions.
type ConditionLogic string

const (
	ConditionLogicAnd ConditionLogic = "and"
	ConditionLogicOr  ConditionLogic = "or"
)

// RuleAction decides whether a satisfied rule shows or suppresses its question.
type RuleAction string

const (
	RuleActionShow RuleAction = "show"
	RuleActionSkip RuleAction = "skip"
)

// Form is a published form with its questions and settings.
type Form struct {
	ID          string       `json:"id" yaml:"id"`
	OwnerID     string       `json:"owner_id" yaml:"owner_id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Questions   []Question   `json:"questions" yaml:"questions"`
	Settings    FormSettings `json:"settings" yaml:"settings"`
	CreatedAt   time.Time    `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"-"`
}

// FormSettings holds per-form integration settings.
type FormSettings struct {
	Webhooks []Webhook `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
}

// Webhook returns the configured webhook with the given id.
func (f *Form) Webhook(id string) (Webhook, bool) {
	for _, w := range f.Settings.Webhooks {
		if w.ID == id {
			return w, true
		}
	}
	return Webhook{}, false
}

// Question is one form field.
type Question struct {
	ID         string         `json:"id" yaml:"id"`
	Type       QuestionType   `json:"type" yaml:"type"`
	Title      string         `json:"title" yaml:"title"`
	Required   bool           `json:"required" yaml:"required"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Logic      *LogicRule     `json:"logic,omitempty" yaml:"logic,omitempty"`
}

// LogicRule is the branching rule attached to a question.
type LogicRule struct {
	Conditions       []LogicCondition `json:"conditions" yaml:"conditions"`
	ConditionLogic   ConditionLogic   `json:"conditionLogic" yaml:"conditionLogic"`
	Action           RuleAction       `json:"action" yaml:"action"`
	JumpToQuestionID string           `json:"jumpToQuestionId,omitempty" yaml:"jumpToQuestionId,omitempty"`
}

// LogicCondition compares the answer of another question against Value.
// Value is ignored by is_empty and is_not_empty.
type LogicCondition struct {
	QuestionID string   `json:"questionId"`
	Operator   Operator `json:"operator"`
	Value      Answer   `json:"value,omitempty"`
}

// UnmarshalJSON decodes the condition value into the Answer union.
func (c *LogicCondition) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionID string          `json:"questionId"`
		Operator   Operator        `json:"operator"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.QuestionID = raw.QuestionID
	c.Operator = raw.Operator
	c.Value = nil
	if len(raw.Value) > 0 {
		v, err := ParseAnswer(raw.Value)
		if err != nil {
			return fmt.Errorf("condition on %q: %w", raw.QuestionID, err)
		}
		c.Value = v
	}
	return nil
}

// UnmarshalYAML decodes a condition from a YAML fixture.
func (c *LogicCondition) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		QuestionID string   `yaml:"questionId"`
		Operator   Operator `yaml:"operator"`
		Value      any      `yaml:"value"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := AnswerFromValue(raw.Value)
	if err != nil {
		return fmt.Errorf("condition on %q: %w", raw.QuestionID, err)
	}
	c.QuestionID = raw.QuestionID
	c.Operator = raw.Operator
	c.Value = v
	return nil
}
