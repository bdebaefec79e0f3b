package rules

import "errors"

const (
	ProgressMin = 0
	ProgressMax = 100
)

// SystemChangeReason is recorded on audit rows for changes no human
// supplied a note for, keeping the audit trail total.
const SystemChangeReason = "system update"

var (
	ErrProgressOutOfRange = errors.New("progress out of range")
	ErrProgressDecrease   = errors.New("progress may not decrease")
	ErrNoteRequired       = errors.New("a note is required for this change")
	ErrChangeSettled      = errors.New("change already committed or rolled back")
)

// CompletionProgress returns the progress forced by a completion
// toggle: completing a task pins it at 100, un-completing resets to 0.
func CompletionProgress(completed bool) int {
	if completed {
		return ProgressMax
	}
	return ProgressMin
}

// ValidateProgressEdit checks a direct slider edit. Progress moves
// monotonically upward; the only reset path is the completion toggle.
func ValidateProgressEdit(current, requested int) error {
	if requested < ProgressMin || requested > ProgressMax {
		return ErrProgressOutOfRange
	}
	if requested < current {
		return ErrProgressDecrease
	}
	return nil
}

type ChangeState int

const (
	ChangePending ChangeState = iota
	ChangeCommitted
	ChangeRolledBack
)

// PendingProgress holds a requested progress edit while it waits for
// the user's justification note. The edit takes effect only on Commit;
// Rollback or an unsettled change leaves the prior value in force.
type PendingProgress struct {
	current   int
	requested int
	note      string
	state     ChangeState
}

// NewPendingProgress validates and stages a direct progress edit.
func NewPendingProgress(current, requested int) (*PendingProgress, error) {
	if err := ValidateProgressEdit(current, requested); err != nil {
		return nil, err
	}
	return &PendingProgress{current: current, requested: requested}, nil
}

// Commit settles the change with the user's note. An empty note is
// rejected and the change stays pending.
func (p *PendingProgress) Commit(note string) error {
	if p.state != ChangePending {
		return ErrChangeSettled
	}
	if note == "" {
		return ErrNoteRequired
	}
	p.note = note
	p.state = ChangeCommitted
	return nil
}

// CommitSystem settles a system-initiated change with the placeholder
// reason, for paths that never collected a human note.
func (p *PendingProgress) CommitSystem() error {
	if p.state != ChangePending {
		return ErrChangeSettled
	}
	p.note = SystemChangeReason
	p.state = ChangeCommitted
	return nil
}

// Rollback cancels the change; Value reverts to the pre-edit progress.
func (p *PendingProgress) Rollback() {
	if p.state == ChangePending {
		p.state = ChangeRolledBack
	}
}

// Value is the effective progress: the requested value once committed,
// the prior value otherwise.
func (p *PendingProgress) Value() int {
	if p.state == ChangeCommitted {
		return p.requested
	}
	return p.current
}

func (p *PendingProgress) Note() string       { return p.note }
func (p *PendingProgress) State() ChangeState { return p.state }
