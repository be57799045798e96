package common

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationError represents one failed rule
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s=%v %s", e.Field, e.Value, e.Message)
}

// ValidationRule checks a single value; nil means it passed.
type ValidationRule func(field string, value any) *ValidationError

// Validator collects rule failures across several fields.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Field(field string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(field, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

func (v *Validator) ErrorMessage() string {
	msgs := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil, or an AppError with the given code wrapping sentinel.
func (v *Validator) Err(code string, sentinel error) error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(code, v.ErrorMessage(), sentinel)
}

func Required(field string, value any) *ValidationError {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return &ValidationError{Field: field, Value: value, Message: "is required"}
	}
	if value == nil {
		return &ValidationError{Field: field, Value: value, Message: "is required"}
	}
	return nil
}

// OneOf accepts a string from allowed.
func OneOf(allowed ...string) ValidationRule {
	return func(field string, value any) *ValidationError {
		s, _ := value.(string)
		if slices.Contains(allowed, s) {
			return nil
		}
		return &ValidationError{Field: field, Value: value, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
}

// Positive accepts ints, int32s, float64s and durations above zero.
func Positive(field string, value any) *ValidationError {
	ok := false
	switch n := value.(type) {
	case int:
		ok = n > 0
	case int32:
		ok = n > 0
	case float64:
		ok = n > 0
	case time.Duration:
		ok = n > 0
	}
	if !ok {
		return &ValidationError{Field: field, Value: value, Message: "must be positive"}
	}
	return nil
}

func NonNegative(field string, value any) *ValidationError {
	if n, ok := value.(int); ok && n < 0 {
		return &ValidationError{Field: field, Value: value, Message: "must not be negative"}
	}
	return nil
}

// UUID accepts a uuid.UUID or its string form; the nil UUID is rejected.
func UUID(field string, value any) *ValidationError {
	var id uuid.UUID
	switch v := value.(type) {
	case uuid.UUID:
		id = v
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return &ValidationError{Field: field, Value: value, Message: "must be a valid UUID"}
		}
		id = parsed
	default:
		return &ValidationError{Field: field, Value: value, Message: "must be a UUID"}
	}
	if id == uuid.Nil {
		return &ValidationError{Field: field, Value: value, Message: "must not be the nil UUID"}
	}
	return nil
}

// Level accepts names understood by ParseLevel.
func Level(field string, value any) *ValidationError {
	s, _ := value.(string)
	if _, err := ParseLevel(s); err != nil {
		return &ValidationError{Field: field, Value: value, Message: "must be debug, info, warn or error"}
	}
	return nil
}
