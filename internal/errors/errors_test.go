package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReactusError_Error(t *testing.T) {
	err := NewResolutionFailure("TRANSFORM_NIL", "bundler returned no code", nil).
		WithEntry("@/pages/home.tsx").
		WithOp("client-bundle")

	msg := err.Error()
	assert.Contains(t, msg, "[TRANSFORM_NIL]")
	assert.Contains(t, msg, "entry:@/pages/home.tsx")
	assert.Contains(t, msg, "op:client-bundle")
	assert.Contains(t, msg, "bundler returned no code")
}

func TestReactusError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewWriteFailure("WRITE_CHUNK", "writing client chunk", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
}

func TestReactusError_Is_MatchesTypeAndCode(t *testing.T) {
	err := NewInvalidEntry("OUTSIDE_ROOT", "path escapes project root")

	assert.ErrorIs(t, err, &ReactusError{Type: ErrorTypeInvalidEntry, Code: "OUTSIDE_ROOT"})
	// Empty code on the target matches any code of the same class.
	assert.ErrorIs(t, err, &ReactusError{Type: ErrorTypeInvalidEntry})
	assert.NotErrorIs(t, err, &ReactusError{Type: ErrorTypeWrite})
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid entry", NewInvalidEntry("X", "m"), IsInvalidEntry},
		{"resolution", NewResolutionFailure("X", "m", nil), IsResolutionFailure},
		{"synthesis", NewSynthesisFailure("X", "m"), IsSynthesisFailure},
		{"artifact", NewArtifactMissing("X", "m"), IsArtifactMissing},
		{"write", NewWriteFailure("X", "m", nil), IsWriteFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestTypePredicates_Wrapped(t *testing.T) {
	inner := NewArtifactMissing("NO_CHUNK", "no chunk in output")
	wrapped := fmt.Errorf("building page: %w", inner)

	assert.True(t, IsArtifactMissing(wrapped))
	assert.False(t, IsWriteFailure(wrapped))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(NewInvalidEntry("X", "m")))
	assert.False(t, IsRecoverable(NewSynthesisFailure("X", "m")))
	assert.False(t, IsRecoverable(errors.New("plain")))
}
