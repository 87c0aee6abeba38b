package apperrors

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ErrorType represents the coarse category of an AppError, propagated
// end to end from a command's execution through to CommandResult.error_category
// and the aggregated turn response.
type ErrorType string

const (
	// Validation covers malformed input: unknown slot keys, wrong types,
	// requests that never reach business rule evaluation.
	Validation ErrorType = "validation"
	// Business covers rule violations against a well-formed request: item
	// unavailable, modifier conflicts, quantity limits, inventory shortages.
	Business ErrorType = "business"
	// System covers everything else: store failures, LLM/tool failures,
	// panics recovered at the orchestrator boundary.
	System ErrorType = "system"
)

// Code enumerates the stable error codes carried on CommandResult and surfaced
// to the response aggregator.
type Code string

const (
	CodeItemUnavailable          Code = "ITEM_UNAVAILABLE"
	CodeItemNotFound             Code = "ITEM_NOT_FOUND"
	CodeSizeNotAvailable         Code = "SIZE_NOT_AVAILABLE"
	CodeModifierRemoveNotPresent Code = "MODIFIER_REMOVE_NOT_PRESENT"
	CodeModifierAddNotAllowed    Code = "MODIFIER_ADD_NOT_ALLOWED"
	CodeModifierConflict         Code = "MODIFIER_CONFLICT"
	CodeQuantityExceedsLimit     Code = "QUANTITY_EXCEEDS_LIMIT"
	CodeInventoryShortage        Code = "INVENTORY_SHORTAGE"
	CodeInvalidQuantity          Code = "INVALID_QUANTITY"
	CodeDatabaseError            Code = "DATABASE_ERROR"
	CodeInternalError            Code = "INTERNAL_ERROR"
)

// AppError is the single error type every component beyond parsing is
// expected to produce; a bare error should never cross a component boundary
// once a command has started executing.
type AppError struct {
	Err        error                  `json:"-"`
	Message    string                 `json:"message"`
	Code       Code                   `json:"code"`
	Type       ErrorType              `json:"type"`
	StatusCode int                    `json:"status_code,omitempty"`
	Stack      string                 `json:"stack,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the original error for errors.Is/As chaining.
func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithService(service string) *AppError {
	e.Service = service
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithCode(code Code) *AppError {
	e.Code = code
	return e
}

func (e *AppError) WithStatusCode(statusCode int) *AppError {
	e.StatusCode = statusCode
	return e
}

func (e *AppError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Is implements error comparison; two AppErrors are equal for errors.Is
// purposes when they share a type and code.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// NewValidation builds a Validation AppError with the given code.
func NewValidation(code Code, message string) *AppError {
	return &AppError{
		Type:      Validation,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStack(),
	}
}

// NewBusiness builds a Business AppError with the given code.
func NewBusiness(code Code, message string) *AppError {
	return &AppError{
		Type:      Business,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStack(),
	}
}

// NewSystem builds a System AppError with the given code.
func NewSystem(code Code, message string) *AppError {
	return &AppError{
		Type:      System,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStack(),
	}
}

// Wrap lifts an arbitrary error into a System AppError, preserving an
// existing AppError's type and code instead of downgrading it.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Err:       appErr.Err,
			Message:   fmt.Sprintf("%s: %s", message, appErr.Message),
			Code:      appErr.Code,
			Type:      appErr.Type,
			Stack:     appErr.Stack,
			Context:   appErr.Context,
			Timestamp: appErr.Timestamp,
		}
	}

	return &AppError{
		Err:       err,
		Message:   message,
		Type:      System,
		Code:      CodeInternalError,
		Timestamp: time.Now(),
		Stack:     getStack(),
	}
}

func getStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") && !strings.Contains(frame.File, "apperrors/errors.go") {
			stack.WriteString(fmt.Sprintf("%s:%d %s\n",
				filepath.Base(frame.File), frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return stack.String()
}

// IsTimeout reports whether err represents a timeout, checking the standard
// Timeout() interface before falling back to a message scan.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if t, ok := err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") ||
		strings.Contains(errMsg, "context deadline exceeded")
}

// IsRetryable reports whether a failed operation is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if IsTimeout(err) {
		return true
	}

	if t, ok := err.(interface{ Temporary() bool }); ok {
		return t.Temporary()
	}

	return false
}
