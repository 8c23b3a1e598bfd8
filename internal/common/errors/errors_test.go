package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
	fields   []map[string]interface{}
}

func (r *recordingLogger) Error(msg string, fields map[string]interface{}) {
	r.messages = append(r.messages, msg)
	r.fields = append(r.fields, fields)
}

func TestStandardError_IsSentinel(t *testing.T) {
	err := NewValidationError("annualSalaryUSD", "Field 'annualSalaryUSD' must be a non-negative number. Got: -1")
	wrapped := fmt.Errorf("validate: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrValidationFailed))
	assert.False(t, stderrors.Is(wrapped, ErrNoInputFound))
	assert.Equal(t, "annualSalaryUSD", err.Field)
}

func TestNoInputFoundMessageIsStable(t *testing.T) {
	a := NewNoInputFoundError(3)
	b := NewNoInputFoundError(7)
	assert.Equal(t, a.Message, b.Message)
	assert.Contains(t, a.Message, "income")
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	std := NewNoInputFoundError(0)
	assert.Same(t, std, Normalize(fmt.Errorf("wrapped: %w", std)))

	plain := Normalize(stderrors.New("disk on fire"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "disk on fire", plain.Message)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeNoInputFound:            "DISCOVERY",
		ErrCodeMalformedCandidate:      "DISCOVERY",
		ErrCodeArchiveExtractionFailed: "DISCOVERY",
		ErrCodeValidationFailed:        "VALIDATION",
		ErrCodeResultWriteFailed:       "EMISSION",
		ErrCodeContractViolation:       "EMISSION",
		ErrCodeInternal:                "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), code)
	}
}

func TestErrorHandler_HandleRunError(t *testing.T) {
	rec := &recordingLogger{}
	h := NewErrorHandler(rec)

	assert.Nil(t, h.HandleRunError("locating", nil))

	got := h.HandleRunError("validating", NewValidationError("creditCards", "bad"))
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeValidationFailed, got.Code)
	require.Len(t, rec.fields, 1)
	assert.Equal(t, "validating", rec.fields[0]["stage"])
	assert.Equal(t, "VALIDATION", rec.fields[0]["errorCategory"])

	leaked := h.HandleRunError("locating", NewMalformedCandidateError("a.json", "no object"))
	assert.Equal(t, ErrCodeInternal, leaked.Code)
}

func TestArchiveErrorUnwraps(t *testing.T) {
	cause := stderrors.New("zip: not a valid zip file")
	err := NewArchiveExtractionFailedError("bundle.zip", cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrArchiveExtractionFailed))
	assert.False(t, IsSurfaced(err.Code))
}
