package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

// Violation - нарушение правила поля, в формате {value,msg,param,location}
type Violation struct {
	Value    interface{} `json:"value,omitempty"`
	Msg      string      `json:"msg"`
	Param    string      `json:"param"`
	Location string      `json:"location"`
}

type ValidationError struct {
	Errors []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, v.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// FieldRule - декларативное правило для строкового поля тела запроса
type FieldRule struct {
	Field     string
	Message   string
	MinLength int
	Format    string
}

// BodyValidator проверяет JSON-тело по схеме, собранной из правил
type BodyValidator struct {
	schema *jsonschema.Schema
	rules  map[string]FieldRule
}

// NewBodyValidator компилирует правила в JSON Schema
func NewBodyValidator(rules ...FieldRule) (*BodyValidator, error) {
	properties := make(map[string]interface{}, len(rules))
	required := make([]string, 0, len(rules))
	byField := make(map[string]FieldRule, len(rules))
	for _, r := range rules {
		prop := map[string]interface{}{"type": "string"}
		if r.MinLength > 0 {
			prop["minLength"] = r.MinLength
		}
		if r.Format != "" {
			prop["format"] = r.Format
		}
		properties[r.Field] = prop
		required = append(required, r.Field)
		byField[r.Field] = r
	}

	schemaBytes, err := json.Marshal(map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	})
	if err != nil {
		return nil, err
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaBytes, rs); err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &BodyValidator{schema: rs, rules: byField}, nil
}

// MustBodyValidator - как NewBodyValidator, но паникует; для правил, заданных в коде
func MustBodyValidator(rules ...FieldRule) *BodyValidator {
	v, err := NewBodyValidator(rules...)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate возвращает *ValidationError со всеми нарушениями или nil
func (v *BodyValidator) Validate(ctx context.Context, body []byte) error {
	keyErrs, err := v.schema.ValidateBytes(ctx, body)
	if err != nil {
		return &ValidationError{Errors: []Violation{{Msg: "Invalid request body", Location: "body"}}}
	}
	if len(keyErrs) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(keyErrs))
	violations := make([]Violation, 0, len(keyErrs))
	for _, ke := range keyErrs {
		rule, ok := v.fieldFor(ke)
		if !ok {
			violations = append(violations, Violation{Msg: ke.Message, Location: "body"})
			continue
		}
		if seen[rule.Field] {
			continue
		}
		seen[rule.Field] = true
		violations = append(violations, Violation{
			Value:    ke.InvalidValue,
			Msg:      rule.Message,
			Param:    rule.Field,
			Location: "body",
		})
	}
	return &ValidationError{Errors: violations}
}

// ValidateFields проверяет уже разобранные значения полей
func (v *BodyValidator) ValidateFields(ctx context.Context, fields map[string]string) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return v.Validate(ctx, body)
}

// fieldFor находит правило по пути ошибки; для required путь указывает на корень,
// поэтому имя поля ищется в тексте сообщения
func (v *BodyValidator) fieldFor(ke jsonschema.KeyError) (FieldRule, bool) {
	path := strings.TrimPrefix(ke.PropertyPath, "/")
	if rule, ok := v.rules[path]; ok {
		return rule, true
	}
	for field, rule := range v.rules {
		if strings.Contains(ke.Message, `"`+field+`"`) {
			return rule, true
		}
	}
	return FieldRule{}, false
}

var textRules = MustBodyValidator(FieldRule{Field: "text", Message: "Text is required", MinLength: 1})
