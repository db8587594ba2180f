package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_Table(t *testing.T) {
	boom := StepFailed{Err: errors.New("boom")}

	tests := []struct {
		name    string
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{"start with attachment", StateIdle, Start{HasAttachment: true}, StateUploadingAttachment, false},
		{"start without attachment", StateIdle, Start{}, StateCapturingSnapshot, false},
		{"attachment uploaded", StateUploadingAttachment, StepSucceeded{}, StateRasterizingAttachment, false},
		{"attachment rasterized", StateRasterizingAttachment, StepSucceeded{}, StateCapturingSnapshot, false},
		{"snapshot captured", StateCapturingSnapshot, StepSucceeded{}, StateAssembling, false},
		{"assembled", StateAssembling, StepSucceeded{}, StateUploadingFinal, false},
		{"final uploaded", StateUploadingFinal, StepSucceeded{}, StatePersistingRecord, false},
		{"persisted", StatePersistingRecord, StepSucceeded{}, StateDone, false},

		{"fail while uploading attachment", StateUploadingAttachment, boom, StateFailed, false},
		{"fail while rasterizing", StateRasterizingAttachment, boom, StateFailed, false},
		{"fail while capturing", StateCapturingSnapshot, boom, StateFailed, false},
		{"fail while assembling", StateAssembling, boom, StateFailed, false},
		{"fail while uploading final", StateUploadingFinal, boom, StateFailed, false},
		{"fail while persisting", StatePersistingRecord, boom, StateFailed, false},

		{"idle cannot fail", StateIdle, boom, StateIdle, true},
		{"idle cannot advance", StateIdle, StepSucceeded{}, StateIdle, true},
		{"no restart mid-run", StateAssembling, Start{}, StateAssembling, true},
		{"done is terminal", StateDone, StepSucceeded{}, StateDone, true},
		{"done cannot fail", StateDone, boom, StateDone, true},
		{"failed is terminal", StateFailed, StepSucceeded{}, StateFailed, true},
		{"failed cannot restart", StateFailed, Start{}, StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.event)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_FullRuns(t *testing.T) {
	walk := func(hasAttachment bool) []State {
		s, err := Next(StateIdle, Start{HasAttachment: hasAttachment})
		require.NoError(t, err)
		visited := []State{s}
		for !s.Terminal() {
			s, err = Next(s, StepSucceeded{})
			require.NoError(t, err)
			visited = append(visited, s)
		}
		return visited
	}

	assert.Equal(t, []State{
		StateUploadingAttachment,
		StateRasterizingAttachment,
		StateCapturingSnapshot,
		StateAssembling,
		StateUploadingFinal,
		StatePersistingRecord,
		StateDone,
	}, walk(true))

	assert.Equal(t, []State{
		StateCapturingSnapshot,
		StateAssembling,
		StateUploadingFinal,
		StatePersistingRecord,
		StateDone,
	}, walk(false))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uploading_final", StateUploadingFinal.String())
	assert.Equal(t, "state(42)", State(42).String())
}
