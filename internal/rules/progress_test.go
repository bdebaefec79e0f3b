package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionProgress(t *testing.T) {
	assert.Equal(t, 100, CompletionProgress(true))
	assert.Equal(t, 0, CompletionProgress(false))
}

func TestValidateProgressEdit(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		requested int
		wantErr   error
	}{
		{"increase", 40, 70, nil},
		{"no change", 40, 40, nil},
		{"to complete", 99, 100, nil},
		{"decrease", 70, 40, ErrProgressDecrease},
		{"decrease by one", 1, 0, ErrProgressDecrease},
		{"negative", 0, -1, ErrProgressOutOfRange},
		{"over 100", 50, 101, ErrProgressOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProgressEdit(tt.current, tt.requested)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProgressMonotonicUnderEditSequence(t *testing.T) {
	stored := 10
	for _, requested := range []int{50, 40, 30, 20} {
		prev := stored
		if err := ValidateProgressEdit(stored, requested); err == nil {
			stored = requested
		}
		assert.GreaterOrEqual(t, stored, prev)
	}
	assert.Equal(t, 50, stored)
}

func TestPendingProgressCommit(t *testing.T) {
	p, err := NewPendingProgress(40, 70)
	require.NoError(t, err)
	assert.Equal(t, ChangePending, p.State())
	assert.Equal(t, 40, p.Value(), "pending change must not take effect")

	assert.ErrorIs(t, p.Commit(""), ErrNoteRequired)
	assert.Equal(t, 40, p.Value(), "rejected commit leaves prior value")

	require.NoError(t, p.Commit("halfway done"))
	assert.Equal(t, ChangeCommitted, p.State())
	assert.Equal(t, 70, p.Value())
	assert.Equal(t, "halfway done", p.Note())

	assert.ErrorIs(t, p.Commit("again"), ErrChangeSettled)
}

func TestPendingProgressRollback(t *testing.T) {
	p, err := NewPendingProgress(40, 70)
	require.NoError(t, err)

	p.Rollback()
	assert.Equal(t, ChangeRolledBack, p.State())
	assert.Equal(t, 40, p.Value())
	assert.ErrorIs(t, p.Commit("too late"), ErrChangeSettled)
}

func TestPendingProgressSystemCommit(t *testing.T) {
	p, err := NewPendingProgress(0, 25)
	require.NoError(t, err)

	require.NoError(t, p.CommitSystem())
	assert.Equal(t, 25, p.Value())
	assert.Equal(t, SystemChangeReason, p.Note())
}

func TestPendingProgressRejectsDecrease(t *testing.T) {
	_, err := NewPendingProgress(70, 40)
	assert.ErrorIs(t, err, ErrProgressDecrease)
}
