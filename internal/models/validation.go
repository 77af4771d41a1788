package models

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors aggregates multiple validation failures.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Add records a validation error for a field.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}

	var nested *ValidationErrors
	if errors.As(err, &nested) {
		for _, sub := range nested.Errors {
			v.Errors = append(v.Errors, ValidationError{
				Field:   joinField(field, sub.Field),
				Message: sub.Message,
				Cause:   sub.Cause,
			})
		}
		return
	}

	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: err.Error(),
		Cause:   err,
	})
}

// AddMessage records a validation error with a custom message.
func (v *ValidationErrors) AddMessage(field, message string) {
	if message == "" {
		return
	}
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

// Err returns nil if there are no errors, otherwise returns the validation error.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Error implements error.
func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return "validation failed"
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	var builder strings.Builder
	for i, err := range v.Errors {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(err.Error())
	}

	return builder.String()
}

// Is allows errors.Is to match nested validation errors.
func (v *ValidationErrors) Is(target error) bool {
	if v == nil {
		return false
	}
	for _, err := range v.Errors {
		if err.Cause != nil && errors.Is(err.Cause, target) {
			return true
		}
	}
	return false
}

// Validation errors.
var (
	ErrPayloadTooLong   = errors.New("payload exceeds 64 bytes")
	ErrInvalidSource    = errors.New("source is reserved for declared-only messages")
	ErrMissingName      = errors.New("name is required")
	ErrSignalOutOfRange = errors.New("signal does not fit in message")
)

// MaxPayloadSize is the largest payload accepted (CAN FD).
const MaxPayloadSize = 64

// Validate checks an observed event.
func (e *CanEvent) Validate() error {
	v := &ValidationErrors{}
	if e.Source == InvalidSource {
		v.Add("source", ErrInvalidSource)
	}
	if len(e.Data) > MaxPayloadSize {
		v.Add("data", ErrPayloadTooLong)
	}
	return v.Err()
}

// Validate checks a symbol database declaration.
func (m *MessageDecl) Validate() error {
	v := &ValidationErrors{}
	if strings.TrimSpace(m.Name) == "" {
		v.Add("name", ErrMissingName)
	}
	if m.Size < 0 || m.Size > MaxPayloadSize {
		v.AddMessage("size", fmt.Sprintf("size %d out of range 0-%d", m.Size, MaxPayloadSize))
	}
	for i, sig := range m.Signals {
		field := fmt.Sprintf("signals[%d]", i)
		if strings.TrimSpace(sig.Name) == "" {
			v.Add(field+".name", ErrMissingName)
		}
		if m.Size > 0 && (sig.StartBit < 0 || sig.Size <= 0 || sig.StartBit+sig.Size > m.Size*8) {
			v.Add(field, ErrSignalOutOfRange)
		}
	}
	return v.Err()
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}
