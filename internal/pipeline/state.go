// Package pipeline runs the budget document pipeline: upload the attachment,
// rasterize it, capture the budget layout, assemble the PDF, upload it and
// persist the budget record.
package pipeline

import (
	"errors"
	"fmt"
)

type State int

const (
	StateIdle State = iota
	StateUploadingAttachment
	StateRasterizingAttachment
	StateCapturingSnapshot
	StateAssembling
	StateUploadingFinal
	StatePersistingRecord
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:                  "idle",
	StateUploadingAttachment:   "uploading_attachment",
	StateRasterizingAttachment: "rasterizing_attachment",
	StateCapturingSnapshot:     "capturing_snapshot",
	StateAssembling:            "assembling",
	StateUploadingFinal:        "uploading_final",
	StatePersistingRecord:      "persisting_record",
	StateDone:                  "done",
	StateFailed:                "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Event drives a transition.
type Event interface {
	event()
}

// Start begins a run. Without an attachment the attachment steps are skipped.
type Start struct {
	HasAttachment bool
}

// StepSucceeded moves to the next step.
type StepSucceeded struct{}

// StepFailed aborts the run.
type StepFailed struct {
	Err error
}

func (Start) event()         {}
func (StepSucceeded) event() {}
func (StepFailed) event()    {}

var ErrInvalidTransition = errors.New("invalid pipeline transition")

var nextStep = map[State]State{
	StateUploadingAttachment:   StateRasterizingAttachment,
	StateRasterizingAttachment: StateCapturingSnapshot,
	StateCapturingSnapshot:     StateAssembling,
	StateAssembling:            StateUploadingFinal,
	StateUploadingFinal:        StatePersistingRecord,
	StatePersistingRecord:      StateDone,
}

// Next is the transition function. It has no side effects.
func Next(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case Start:
		if s != StateIdle {
			break
		}
		if ev.HasAttachment {
			return StateUploadingAttachment, nil
		}
		return StateCapturingSnapshot, nil

	case StepSucceeded:
		if next, ok := nextStep[s]; ok {
			return next, nil
		}

	case StepFailed:
		if s != StateIdle && !s.Terminal() {
			return StateFailed, nil
		}
	}

	return s, fmt.Errorf("%w: %T in state %s", ErrInvalidTransition, e, s)
}
