package service

import (
	"errors"
	"strings"
)

// Service errors.
var (
	ErrValidation          = errors.New("validation failed")
	ErrAliasInvalid        = errors.New("invalid custom alias")
	ErrAliasTaken          = errors.New("custom alias already in use")
	ErrGenerationExhausted = errors.New("could not generate a unique short code")
	ErrNotFound            = errors.New("URL not found")
	ErrExpired             = errors.New("URL has expired")
	ErrPasswordRequired    = errors.New("password required")
	ErrPasswordIncorrect   = errors.New("incorrect password")
	ErrStorage             = errors.New("storage failure")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects the field errors of one request.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PublicMessage returns the client-safe description of err. Storage and
// unknown failures collapse to a generic message.
func PublicMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrAliasInvalid):
		return err.Error()
	case errors.Is(err, ErrAliasTaken),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordIncorrect),
		errors.Is(err, ErrGenerationExhausted):
		return firstKnown(err).Error()
	default:
		return "internal server error"
	}
}

func firstKnown(err error) error {
	for _, known := range []error{
		ErrAliasTaken, ErrNotFound, ErrExpired, ErrPasswordRequired,
		ErrPasswordIncorrect, ErrGenerationExhausted,
	} {
		if errors.Is(err, known) {
			return known
		}
	}
	return err
}
