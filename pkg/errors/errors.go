package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCancelled    ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad   ErrorCode = "CONFIG_LOAD"
	ErrConfigParse  ErrorCode = "CONFIG_PARSE"
	ErrConfigValid  ErrorCode = "CONFIG_INVALID"
	ErrSinkUnknown  ErrorCode = "SINK_UNKNOWN"
	ErrPackNotFound ErrorCode = "PACK_NOT_FOUND"
	ErrPackInvalid  ErrorCode = "PACK_INVALID"
	ErrPatternValid ErrorCode = "PATTERN_INVALID"

	// Resolution errors
	ErrPatternNoMatch ErrorCode = "PATTERN_NO_MATCH"
	ErrSkillLayout    ErrorCode = "SKILL_LAYOUT"
	ErrSkillsRoot     ErrorCode = "SKILLS_ROOT_MISSING"
	ErrSkillNotFound  ErrorCode = "SKILL_NOT_FOUND"

	// Planning errors
	ErrNameCollision ErrorCode = "NAME_COLLISION"
	ErrNameInvalid   ErrorCode = "NAME_INVALID"

	// Reconciliation errors
	ErrOwnership    ErrorCode = "OWNERSHIP_CONFLICT"
	ErrContainment  ErrorCode = "CONTAINMENT_VIOLATION"
	ErrNotInstalled ErrorCode = "NOT_INSTALLED"

	// Transport errors
	ErrGitFailed  ErrorCode = "GIT_FAILED"
	ErrGitMissing ErrorCode = "GIT_MISSING"

	// FileSystem and state errors
	ErrFileAccess  ErrorCode = "FILE_ACCESS"
	ErrFileCopy    ErrorCode = "FILE_COPY"
	ErrFileRemove  ErrorCode = "FILE_REMOVE"
	ErrDirCreate   ErrorCode = "DIR_CREATE"
	ErrStateLoad   ErrorCode = "STATE_LOAD"
	ErrStateWrite  ErrorCode = "STATE_WRITE"
	ErrStateLocked ErrorCode = "STATE_LOCKED"
)

// Kind groups error codes into the categories reported to users.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindResolution    Kind = "resolution"
	KindPlanning      Kind = "planning"
	KindOwnership     Kind = "ownership"
	KindContainment   Kind = "containment"
	KindTransport     Kind = "transport"
	KindIO            Kind = "io"
	KindUnknown       Kind = "unknown"
)

var codeKinds = map[ErrorCode]Kind{
	ErrInvalidInput:   KindConfiguration,
	ErrConfigLoad:     KindConfiguration,
	ErrConfigParse:    KindConfiguration,
	ErrConfigValid:    KindConfiguration,
	ErrSinkUnknown:    KindConfiguration,
	ErrPackNotFound:   KindConfiguration,
	ErrPackInvalid:    KindConfiguration,
	ErrPatternValid:   KindConfiguration,
	ErrPatternNoMatch: KindResolution,
	ErrSkillLayout:    KindResolution,
	ErrSkillsRoot:     KindResolution,
	ErrSkillNotFound:  KindResolution,
	ErrNameCollision:  KindPlanning,
	ErrNameInvalid:    KindPlanning,
	ErrOwnership:      KindOwnership,
	ErrContainment:    KindContainment,
	ErrGitFailed:      KindTransport,
	ErrGitMissing:     KindTransport,
	ErrNotInstalled:   KindIO,
	ErrFileAccess:     KindIO,
	ErrFileCopy:       KindIO,
	ErrFileRemove:     KindIO,
	ErrDirCreate:      KindIO,
	ErrStateLoad:      KindIO,
	ErrStateWrite:     KindIO,
	ErrStateLocked:    KindIO,
	ErrCancelled:      KindIO,
	ErrInternal:       KindIO,
}

// SkillpackError represents a structured error with code and details
type SkillpackError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	// Hint is an optional suggestion shown to the user below the message.
	Hint    string
	Wrapped error
}

// Error implements the error interface
func (e *SkillpackError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SkillpackError) Unwrap() error {
	return e.Wrapped
}

// Is matches any SkillpackError carrying the same code.
func (e *SkillpackError) Is(target error) bool {
	var targetErr *SkillpackError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// Kind returns the category of the error code.
func (e *SkillpackError) Kind() Kind {
	if k, ok := codeKinds[e.Code]; ok {
		return k
	}
	return KindUnknown
}

// New creates a new SkillpackError with the given code and message
func New(code ErrorCode, message string) *SkillpackError {
	return &SkillpackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SkillpackError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SkillpackError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *SkillpackError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SkillpackError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *SkillpackError) WithDetail(key string, value interface{}) *SkillpackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithHint attaches a user-facing suggestion.
func (e *SkillpackError) WithHint(hint string) *SkillpackError {
	e.Hint = hint
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var spErr *SkillpackError
	if errors.As(err, &spErr) {
		return spErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown
func GetErrorCode(err error) ErrorCode {
	var spErr *SkillpackError
	if errors.As(err, &spErr) {
		return spErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var spErr *SkillpackError
	if errors.As(err, &spErr) {
		return spErr.Details
	}
	return nil
}

// KindOf reports the category of err, looking through wrapping.
func KindOf(err error) Kind {
	var spErr *SkillpackError
	if errors.As(err, &spErr) {
		return spErr.Kind()
	}
	return KindUnknown
}

// HintOf returns the first hint found along the wrap chain.
func HintOf(err error) string {
	for err != nil {
		var spErr *SkillpackError
		if !errors.As(err, &spErr) {
			return ""
		}
		if spErr.Hint != "" {
			return spErr.Hint
		}
		err = spErr.Wrapped
	}
	return ""
}

// Message returns the outermost human message without the code prefix.
func Message(err error) string {
	var spErr *SkillpackError
	if errors.As(err, &spErr) {
		if spErr.Wrapped != nil {
			return fmt.Sprintf("%s: %s", spErr.Message, Message(spErr.Wrapped))
		}
		return spErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
