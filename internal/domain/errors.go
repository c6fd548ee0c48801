package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeConnection        = "CONNECTION_ERROR"
	ErrCodeIntrospection     = "INTROSPECTION_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInferenceTimeout  = "INFERENCE_TIMEOUT"
	ErrCodeInferenceFailure  = "INFERENCE_FAILURE"
	ErrCodeSQLValidation     = "SQL_VALIDATION_ERROR"
	ErrCodeSQLExecution      = "SQL_EXECUTION_ERROR"
)

// Schema discovery errors
var (
	ErrDatabaseUnreachable = NewDomainError(ErrCodeConnection, "database is unreachable")
	ErrIntrospectionFailed = NewDomainError(ErrCodeIntrospection, "schema introspection failed")
)

// Ingestion errors
var (
	ErrUnsupportedFormat = NewDomainError(ErrCodeUnsupportedFormat, "unsupported document format")
	ErrEmptyDocument     = NewDomainError(ErrCodeValidation, "document contains no extractable text")
	ErrNoValidFiles      = NewDomainError(ErrCodeUnsupportedFormat, "no file in the batch has a supported format")
)

// Inference errors
var (
	ErrInferenceTimeout = NewDomainError(ErrCodeInferenceTimeout, "model inference exceeded its deadline")
	ErrInferenceFailed  = NewDomainError(ErrCodeInferenceFailure, "model inference failed")
)

// SQL path errors
var (
	ErrSQLGenerationFailed = NewDomainError(ErrCodeInferenceFailure, "SQL generation failed")
	ErrSQLNotReadOnly      = NewDomainError(ErrCodeSQLValidation, "generated statement is not a read-only query")
	ErrSQLMultipleStmts    = NewDomainError(ErrCodeSQLValidation, "generated text contains more than one statement")
	ErrSQLEmptyStatement   = NewDomainError(ErrCodeSQLValidation, "generated statement is empty")
)

// Query validation errors
var (
	ErrEmptyQuery = NewDomainError(ErrCodeValidation, "query text cannot be empty")
)
