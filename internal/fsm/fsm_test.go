package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionRecordingHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateActive, next)

	next, err = Transition(next, EventPause)
	require.NoError(t, err)
	require.Equal(t, StatePaused, next)

	next, err = Transition(next, EventResume)
	require.NoError(t, err)
	require.Equal(t, StateActive, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateFinalizing, next)

	next, err = Transition(next, EventFinalized)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionStopFromPaused(t *testing.T) {
	next, err := Transition(StatePaused, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateFinalizing, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateActive, StatePaused, StateFinalizing, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle pause invalid", state: StateIdle, event: EventPause, want: StateIdle, wantErr: true},
		{name: "idle resume invalid", state: StateIdle, event: EventResume, want: StateIdle, wantErr: true},
		{name: "active start invalid", state: StateActive, event: EventStart, want: StateActive, wantErr: true},
		{name: "active resume invalid", state: StateActive, event: EventResume, want: StateActive, wantErr: true},
		{name: "paused start invalid", state: StatePaused, event: EventStart, want: StatePaused, wantErr: true},
		{name: "paused pause invalid", state: StatePaused, event: EventPause, want: StatePaused, wantErr: true},
		{name: "finalizing start invalid", state: StateFinalizing, event: EventStart, want: StateFinalizing, wantErr: true},
		{name: "finalizing stop invalid", state: StateFinalizing, event: EventStop, want: StateFinalizing, wantErr: true},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}
