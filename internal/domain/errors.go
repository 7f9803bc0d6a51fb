package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeLoad              ErrorType = "load"
	ErrorTypeNoDocument        ErrorType = "no_document"
	ErrorTypeDimensionMismatch ErrorType = "dimension_mismatch"
	ErrorTypeEmptyDocument     ErrorType = "empty_document"
	ErrorTypeSave              ErrorType = "save"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeConfig            ErrorType = "config"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func LoadError(message string, err error) *DomainError {
	return NewError(ErrorTypeLoad, message, err)
}

func NoDocumentError(message string) *DomainError {
	return NewError(ErrorTypeNoDocument, message, nil)
}

func DimensionMismatchError(message string) *DomainError {
	return NewError(ErrorTypeDimensionMismatch, message, nil)
}

func EmptyDocumentError(message string) *DomainError {
	return NewError(ErrorTypeEmptyDocument, message, nil)
}

func SaveError(message string, err error) *DomainError {
	return NewError(ErrorTypeSave, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

// TypeOf returns the ErrorType of the first DomainError in err's chain,
// or the empty string when there is none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// IsType reports whether err wraps a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
