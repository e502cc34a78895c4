// Package errors provides structured error handling for the planner core.
// Errors carry a code so callers can route between the three failure
// classes the core distinguishes: recoverable external-service failures,
// fatal storage failures, and genuine lookup failures. Expected absence
// (no pantry match, no provenance) is never represented as an error.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Lookup failures
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeItemNotFound       ErrorCode = "SHOPPING_ITEM_NOT_FOUND"
	CodeRecipeNotFound     ErrorCode = "RECIPE_NOT_FOUND"
	CodePantryItemNotFound ErrorCode = "PANTRY_ITEM_NOT_FOUND"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Recipe schema
	CodeRecipeSchemaInvalid ErrorCode = "RECIPE_SCHEMA_INVALID"

	// External enrichment service (recoverable; callers fall back)
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodeEnrichmentTimeout    ErrorCode = "ENRICHMENT_TIMEOUT"
	CodeJobAlreadyPending    ErrorCode = "JOB_ALREADY_PENDING"

	// Storage (fatal for the operation in progress)
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether the caller may fall back to locally-computed
// data instead of aborting the operation.
func (e *AppError) Recoverable() bool {
	switch e.Code {
	case CodeExternalServiceError, CodeEnrichmentTimeout:
		return true
	}
	return false
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewShoppingItemNotFoundError creates a shopping item lookup error
func NewShoppingItemNotFoundError(itemID string) *AppError {
	return NewAppError(
		CodeItemNotFound,
		"Shopping item not found",
		fmt.Sprintf("Shopping item with ID %s does not exist", itemID),
	).WithMetadata("item_id", itemID)
}

// NewRecipeNotFoundError creates a recipe lookup error
func NewRecipeNotFoundError(recipeID string) *AppError {
	return NewAppError(
		CodeRecipeNotFound,
		"Recipe not found",
		fmt.Sprintf("Recipe with ID %s does not exist", recipeID),
	).WithMetadata("recipe_id", recipeID)
}

// NewPantryItemNotFoundError creates a pantry item lookup error
func NewPantryItemNotFoundError(itemID string) *AppError {
	return NewAppError(
		CodePantryItemNotFound,
		"Pantry item not found",
		fmt.Sprintf("Pantry item with ID %s does not exist", itemID),
	).WithMetadata("pantry_item_id", itemID)
}

// NewRecipeSchemaError reports a recipe row that failed structural
// validation. Never degraded to an empty ingredient list.
func NewRecipeSchemaError(recipeID string, cause error) *AppError {
	return NewAppError(
		CodeRecipeSchemaInvalid,
		"Recipe schema invalid",
		fmt.Sprintf("Stored recipe %s does not match a known schema version", recipeID),
	).WithMetadata("recipe_id", recipeID).WithCause(cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an enrichment service error
func NewExternalServiceError(operation string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"Enrichment service error",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewEnrichmentTimeoutError reports a job that exhausted its poll budget
func NewEnrichmentTimeoutError(jobID string, attempts int) *AppError {
	return NewAppError(
		CodeEnrichmentTimeout,
		"Enrichment job timed out",
		fmt.Sprintf("Job %s did not complete within %d polls", jobID, attempts),
	).WithMetadata("job_id", jobID).WithMetadata("attempts", attempts)
}

// NewJobAlreadyPendingError reports a duplicate submission of a job type
// that already has a pending job. Duplicate external calls are a caller
// error, not a queueing situation.
func NewJobAlreadyPendingError(jobType string) *AppError {
	return NewAppError(
		CodeJobAlreadyPending,
		"Job already pending",
		fmt.Sprintf("A %s job is already in flight", jobType),
	).WithMetadata("job_type", jobType)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}
