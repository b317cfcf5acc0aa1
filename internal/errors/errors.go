package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
	// Context carries the facts needed to act on the error (column names, row counts).
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, formatContext(e.Context))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on code so that errors.Is(err, ErrSchema) works for any schema failure.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// With attaches a context value and returns the same error for chaining
func (e *AppError) With(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func formatContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return strings.Join(parts, ", ")
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeMissingFile        = "MISSING_FILE"
	CodeReadError          = "READ_ERROR"
	CodeSchemaError        = "SCHEMA_ERROR"
	CodeDomainError        = "DOMAIN_ERROR"
	CodeEmptyResult        = "EMPTY_RESULT"
	CodeDegenerateTable    = "DEGENERATE_TABLE"
	CodeInsufficientGroups = "INSUFFICIENT_GROUPS"
	CodeSingularDesign     = "SINGULAR_DESIGN"
)

// Sentinels for errors.Is checks
var (
	ErrConfigInvalid      = &AppError{Code: CodeConfigInvalid}
	ErrMissingFile        = &AppError{Code: CodeMissingFile}
	ErrRead               = &AppError{Code: CodeReadError}
	ErrSchema             = &AppError{Code: CodeSchemaError}
	ErrDomain             = &AppError{Code: CodeDomainError}
	ErrEmptyResult        = &AppError{Code: CodeEmptyResult}
	ErrDegenerateTable    = &AppError{Code: CodeDegenerateTable}
	ErrInsufficientGroups = &AppError{Code: CodeInsufficientGroups}
	ErrSingularDesign     = &AppError{Code: CodeSingularDesign}
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func MissingFile(path string) *AppError {
	return New(CodeMissingFile, "input file not found").With("path", path)
}

func ReadError(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeReadError,
		Message: "failed to read table",
		Cause:   cause,
		Context: map[string]interface{}{"path": path},
	}
}

// SchemaError names every missing column
func SchemaError(missing []string) *AppError {
	return New(CodeSchemaError, fmt.Sprintf("missing columns: %s", strings.Join(missing, ", "))).
		With("missing", len(missing))
}

func DomainError(column, value string) *AppError {
	return New(CodeDomainError, fmt.Sprintf("value %q outside declared domain of column %s", value, column)).
		With("column", column)
}

func EmptyResult(inputRows int) *AppError {
	return New(CodeEmptyResult, "dataset is empty after cleaning").With("input_rows", inputRows)
}

func DegenerateTable(message string) *AppError {
	return New(CodeDegenerateTable, message)
}

func InsufficientGroups(column string, groups int) *AppError {
	return New(CodeInsufficientGroups, fmt.Sprintf("not enough groups in %s for comparison", column)).
		With("groups", groups)
}

func SingularDesign(message string) *AppError {
	return New(CodeSingularDesign, message)
}
