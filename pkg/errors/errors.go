package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryMatching      ErrorCategory = "matching"
	CategoryOracle        ErrorCategory = "oracle"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Matching errors
	CodeInvalidRequest ErrorCode = "invalid_request"
	CodeMatchingFailed ErrorCode = "matching_failed"

	// Oracle errors
	CodeOracleTimeout     ErrorCode = "oracle_timeout"
	CodeOracleUnreachable ErrorCode = "oracle_unreachable"
	CodeOracleMalformed   ErrorCode = "oracle_malformed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// MatcherError is the base error type for all application errors
type MatcherError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *MatcherError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *MatcherError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *MatcherError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryMatching, CategoryInternal:
		return 5
	case CategoryOracle:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *MatcherError) WithContext(key string, value interface{}) *MatcherError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *MatcherError) WithSuggestion(suggestion string) *MatcherError {
	e.Suggestion = suggestion
	return e
}

// New creates a new MatcherError
func New(category ErrorCategory, code ErrorCode, message string) *MatcherError {
	return &MatcherError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with MatcherError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *MatcherError {
	if err == nil {
		return nil
	}

	return &MatcherError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *MatcherError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, source string, detail string, err error) *MatcherError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s: %s", source, detail)
		suggestion = "check the input format against the documented request shape"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in %s", detail, source)
		suggestion = "verify the export has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in %s: %s", source, detail)
		suggestion = "correct the data format or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in %s", source)
		suggestion = "check the input format and data integrity"
	}

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source).
		WithContext("detail", detail)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *MatcherError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD or an RFC3339 timestamp"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *MatcherError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// MatchingError creates a matching-related error
func MatchingError(code ErrorCode, operation string, err error) *MatcherError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidRequest:
		message = fmt.Sprintf("invalid match request during %s", operation)
		suggestion = "check the parsed entry and transaction snapshot fields"
	case CodeMatchingFailed:
		message = fmt.Sprintf("matching failed during %s", operation)
		suggestion = "try adjusting scoring thresholds or check data quality"
	default:
		message = fmt.Sprintf("matching error during %s", operation)
		suggestion = "review the request and configuration"
	}

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryMatching, code, message)
	} else {
		result = New(CategoryMatching, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// OracleError creates a disambiguation-oracle related error. These are
// contained at the arbiter boundary and logged, never returned to callers.
func OracleError(code ErrorCode, endpoint string, err error) *MatcherError {
	var message string
	var suggestion string

	switch code {
	case CodeOracleTimeout:
		message = fmt.Sprintf("oracle call timed out: %s", endpoint)
		suggestion = "increase the oracle timeout or rely on deterministic scoring"
	case CodeOracleUnreachable:
		message = fmt.Sprintf("oracle unreachable: %s", endpoint)
		suggestion = "check network connectivity and the oracle endpoint"
	case CodeOracleMalformed:
		message = fmt.Sprintf("oracle returned a malformed verdict: %s", endpoint)
		suggestion = "the deterministic result was used instead"
	default:
		message = fmt.Sprintf("oracle error: %s", endpoint)
		suggestion = "the deterministic result was used instead"
	}

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryOracle, code, message)
	} else {
		result = New(CategoryOracle, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("endpoint", endpoint)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *MatcherError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	suggestion := "this is likely a bug - please report it with the error details"

	var result *MatcherError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// Utility functions

// IsMatcherError checks if an error is a MatcherError
func IsMatcherError(err error) bool {
	_, ok := err.(*MatcherError)
	return ok
}

// AsMatcherError extracts a MatcherError from an error chain
func AsMatcherError(err error) (*MatcherError, bool) {
	var matcherErr *MatcherError
	if errors.As(err, &matcherErr) {
		return matcherErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a MatcherError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *MatcherError {
	if err == nil {
		return nil
	}

	if matcherErr, ok := AsMatcherError(err); ok {
		return matcherErr
	}

	return Wrap(err, category, code, message)
}
