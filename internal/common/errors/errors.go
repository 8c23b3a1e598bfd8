// Package errors provides the standardized failure taxonomy for a scoring run.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Surfaced as the run's top-level failure.
	ErrCodeNoInputFound      ErrorCode = "NO_INPUT_FOUND"
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeResultWriteFailed ErrorCode = "RESULT_WRITE_FAILED"
	ErrCodeContractViolation ErrorCode = "RESULT_CONTRACT_VIOLATION"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"

	// Recovered inside discovery, never surfaced.
	ErrCodeMalformedCandidate      ErrorCode = "MALFORMED_CANDIDATE"
	ErrCodeArchiveExtractionFailed ErrorCode = "ARCHIVE_EXTRACTION_FAILED"
)

// Sentinels for errors.Is checks against StandardError values.
var (
	ErrNoInputFound            = stderrors.New(string(ErrCodeNoInputFound))
	ErrValidationFailed        = stderrors.New(string(ErrCodeValidationFailed))
	ErrMalformedCandidate      = stderrors.New(string(ErrCodeMalformedCandidate))
	ErrArchiveExtractionFailed = stderrors.New(string(ErrCodeArchiveExtractionFailed))
	ErrResultWriteFailed       = stderrors.New(string(ErrCodeResultWriteFailed))
	ErrContractViolation       = stderrors.New(string(ErrCodeContractViolation))
)

var sentinels = map[ErrorCode]error{
	ErrCodeNoInputFound:            ErrNoInputFound,
	ErrCodeValidationFailed:        ErrValidationFailed,
	ErrCodeMalformedCandidate:      ErrMalformedCandidate,
	ErrCodeArchiveExtractionFailed: ErrArchiveExtractionFailed,
	ErrCodeResultWriteFailed:       ErrResultWriteFailed,
	ErrCodeContractViolation:       ErrContractViolation,
}

// StandardError represents a structured run error. Message is the
// human-readable text written to the ErrorResult and must not carry
// anything run-specific.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Field     string    `json:"field,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches the sentinel for the error's code.
func (e *StandardError) Is(target error) bool {
	if s, ok := sentinels[e.Code]; ok && s == target {
		return true
	}
	return false
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNoInputFoundError is returned when discovery exhausts every source.
func NewNoInputFoundError(sourcesScanned int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoInputFound,
		Message:   "No valid JSON input found containing 'income' section.",
		Details:   fmt.Sprintf("sourcesScanned: %d", sourcesScanned),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports the first violated profile rule.
func NewValidationError(field, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Field:     field,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedCandidateError disqualifies a single candidate source.
func NewMalformedCandidateError(source, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedCandidate,
		Message:   "Candidate is not a usable profile document",
		Details:   fmt.Sprintf("source: %s, reason: %s", source, reason),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewArchiveExtractionFailedError wraps a failed extraction. Non-fatal.
func NewArchiveExtractionFailedError(archive string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArchiveExtractionFailed,
		Message:   fmt.Sprintf("Failed to extract %s", archive),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewResultWriteFailedError is returned when an artifact cannot be persisted.
func NewResultWriteFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultWriteFailed,
		Message:   fmt.Sprintf("Failed to write %s", path),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewContractViolationError is returned when a rendered artifact does not
// match its output schema.
func NewContractViolationError(artifact string, violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContractViolation,
		Message:   fmt.Sprintf("%s does not match the output contract", artifact),
		Details:   strings.Join(violations, "; "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   err.Error(),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsSurfaced reports whether a code may become the run's top-level failure.
func IsSurfaced(code ErrorCode) bool {
	switch code {
	case ErrCodeMalformedCandidate, ErrCodeArchiveExtractionFailed:
		return false
	default:
		return true
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT"), strings.Contains(codeStr, "CANDIDATE"), strings.Contains(codeStr, "ARCHIVE"):
		return "DISCOVERY"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RESULT"):
		return "EMISSION"
	default:
		return "OTHER"
	}
}
