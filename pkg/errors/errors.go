package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrSurveyNotFound indicates that a survey is not registered in the database
	ErrSurveyNotFound = errors.New("survey not found")

	// ErrInvalidInput indicates that invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSurveys indicates that no surveys matched the requested scope
	ErrNoSurveys = errors.New("no surveys found in database")

	// ErrExportFailed indicates that a Qualtrics export finished in a failed state
	ErrExportFailed = errors.New("export failed")

	// ErrExportTimeout indicates that a Qualtrics export did not complete in time
	ErrExportTimeout = errors.New("export timed out")

	// ErrExternalService indicates an error with the Qualtrics API
	ErrExternalService = errors.New("external service error")

	// ErrDatabaseOperation indicates a database operation failure
	ErrDatabaseOperation = errors.New("database operation failed")

	// ErrFileNotFound indicates that an expected export file is missing
	ErrFileNotFound = errors.New("export file not found")
)

// ServiceError represents a service-level error with additional context
type ServiceError struct {
	Op      string                 // Operation that failed
	Service string                 // Service where the error occurred
	Err     error                  // Underlying error
	Context map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("%s.%s: %v (context: %v)", e.Service, e.Op, e.Err, e.Context)
	}
	return fmt.Sprintf("%s.%s: %v", e.Service, e.Op, e.Err)
}

// Unwrap allows errors.Is and errors.As to work
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}

// WithContext adds context to a ServiceError
func (e *ServiceError) WithContext(key string, value interface{}) *ServiceError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSurveyNotFound)
}

// IsExportTimeout checks if an error is an export timeout error
func IsExportTimeout(err error) bool {
	return errors.Is(err, ErrExportTimeout)
}

// IsExternal checks if an error originated from the Qualtrics API
func IsExternal(err error) bool {
	return errors.Is(err, ErrExternalService)
}
