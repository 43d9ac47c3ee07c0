package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerKind tags the variants of Answer.
type AnswerKind int

const (
	KindText AnswerKind = iota + 1
	KindNumber
	KindBool
	KindList
	KindObject
)

// Answer is a respondent's value for one question. It is one of TextAnswer,
// NumberAnswer, BoolAnswer, ListAnswer or ObjectAnswer. A nil Answer means
// the question was not answered (or answered with JSON null).
type Answer interface {
	Kind() AnswerKind
}

// TextAnswer holds free text, an email, a date string or a single choice.
type TextAnswer string

// NumberAnswer holds numeric, rating and scale answers.
type NumberAnswer float64

// BoolAnswer holds yes/no answers submitted as booleans.
type BoolAnswer bool

// ListAnswer holds multi-select and ranking answers.
type ListAnswer []Answer

// ObjectAnswer holds structured answers (address, file metadata, matrix rows).
type ObjectAnswer map[string]Answer

func (TextAnswer) Kind() AnswerKind   { return KindText }
func (NumberAnswer) Kind() AnswerKind { return KindNumber }
func (BoolAnswer) Kind() AnswerKind   { return KindBool }
func (ListAnswer) Kind() AnswerKind   { return KindList }
func (ObjectAnswer) Kind() AnswerKind { return KindObject }

// UnmarshalJSON decodes a JSON array into its element answers.
func (l *ListAnswer) UnmarshalJSON(data []byte) error {
	a, err := ParseAnswer(data)
	if err != nil {
		return err
	}
	list, ok := a.(ListAnswer)
	if !ok && a != nil {
		return fmt.Errorf("expected JSON array, got kind %d", a.Kind())
	}
	*l = list
	return nil
}

// UnmarshalJSON decodes a JSON object into its member answers.
func (o *ObjectAnswer) UnmarshalJSON(data []byte) error {
	a, err := ParseAnswer(data)
	if err != nil {
		return err
	}
	obj, ok := a.(ObjectAnswer)
	if !ok && a != nil {
		return fmt.Errorf("expected JSON object, got kind %d", a.Kind())
	}
	*o = obj
	return nil
}

// Answers maps question ids to the respondent's answers.
type Answers map[string]Answer

// UnmarshalJSON decodes every member of a JSON object into the Answer union.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*a = nil
		return nil
	}
	out := make(Answers, len(raw))
	for id, msg := range raw {
		v, err := ParseAnswer(msg)
		if err != nil {
			return fmt.Errorf("answer %q: %w", id, err)
		}
		out[id] = v
	}
	*a = out
	return nil
}

// ParseAnswer decodes a single JSON value into an Answer.
func ParseAnswer(data []byte) (Answer, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return AnswerFromValue(v)
}

// AnswerFromValue converts a decoded JSON or YAML value into an Answer.
func AnswerFromValue(v any) (Answer, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Answer:
		return t, nil
	case string:
		return TextAnswer(t), nil
	case bool:
		return BoolAnswer(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return NumberAnswer(f), nil
	case float64:
		return NumberAnswer(t), nil
	case float32:
		return NumberAnswer(t), nil
	case int:
		return NumberAnswer(t), nil
	case int64:
		return NumberAnswer(t), nil
	case uint64:
		return NumberAnswer(t), nil
	case []any:
		list := make(ListAnswer, 0, len(t))
		for i, item := range t {
			a, err := AnswerFromValue(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			list = append(list, a)
		}
		return list, nil
	case []string:
		list := make(ListAnswer, 0, len(t))
		for _, item := range t {
			list = append(list, TextAnswer(item))
		}
		return list, nil
	case map[string]any:
		obj := make(ObjectAnswer, len(t))
		for k, item := range t {
			a, err := AnswerFromValue(item)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			obj[k] = a
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported answer value of type %T", v)
	}
}
