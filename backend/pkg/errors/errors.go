package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeDocument represents document store (MongoDB) connectivity errors
	ErrorTypeDocument ErrorType = "document"
	// ErrorTypeGraph represents graph store (Neo4j) connectivity errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeQuery represents failures while executing a query or aggregation
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeData represents malformed or unusable input records
	ErrorTypeData ErrorType = "data"
	// ErrorTypeNoData represents operations with nothing to compute over
	ErrorTypeNoData ErrorType = "no_data"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base exposes the embedded BaseError of the typed errors below
func (e *BaseError) Base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// ErrNoData is returned when an aggregate has no matching records.
// Callers render it the same way as an unavailable store.
var ErrNoData = NewBaseError(ErrorTypeNoData, "no data", nil)

// Store Errors

// ErrStoreUnavailable is returned when a store cannot be reached or rejects credentials
type ErrStoreUnavailable struct {
	*BaseError
	Store string
	URI   string
}

// NewStoreUnavailable creates a connectivity error for the document or graph store
func NewStoreUnavailable(errType ErrorType, uri string, err error) *ErrStoreUnavailable {
	store := "MongoDB"
	if errType == ErrorTypeGraph {
		store = "Neo4j"
	}
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(errType, fmt.Sprintf("%s unavailable at %s", store, uri), err),
		Store:     store,
		URI:       uri,
	}
}

// ErrQueryFailed is returned when a query, traversal or aggregation fails
type ErrQueryFailed struct {
	*BaseError
	Operation string
}

// NewQueryFailed creates a query execution error for the named operation
func NewQueryFailed(operation string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: NewBaseError(ErrorTypeQuery, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Data Errors

// ErrMalformedRecord is returned for import lines that cannot be decoded
type ErrMalformedRecord struct {
	*BaseError
	Line    int
	Excerpt string
}

// NewMalformedRecord creates a data error for one input line; the excerpt is capped at 50 bytes
func NewMalformedRecord(line int, raw string, err error) *ErrMalformedRecord {
	excerpt := raw
	if len(excerpt) > 50 {
		excerpt = excerpt[:50] + "..."
	}
	return &ErrMalformedRecord{
		BaseError: NewBaseError(ErrorTypeData, fmt.Sprintf("malformed record on line %d", line), err),
		Line:      line,
		Excerpt:   excerpt,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType reports whether err or anything it wraps is a BaseError of errType
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ Base() *BaseError }); ok && typed.Base().Type == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNoData reports whether err signals an empty input set
func IsNoData(err error) bool {
	return IsErrorType(err, ErrorTypeNoData)
}

// IsConnectivity reports whether err is a document or graph store connectivity error
func IsConnectivity(err error) bool {
	var unavailable *ErrStoreUnavailable
	return errors.As(err, &unavailable)
}
