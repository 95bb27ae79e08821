package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateConnected

	next, err := Transition(s, EventPrompt)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingCommand, next)

	next, err = Transition(next, EventSend)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingReply, next)

	next, err = Transition(next, EventReply)
	require.NoError(t, err)
	require.Equal(t, StateConnected, next)
}

func TestTransitionBootstrapSendFromConnected(t *testing.T) {
	next, err := Transition(StateConnected, EventSend)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingReply, next)
}

func TestTransitionCloseFromAnyStateGoesClosed(t *testing.T) {
	states := []State{StateConnected, StateAwaitingCommand, StateAwaitingReply, StateClosed}
	for _, state := range states {
		next, err := Transition(state, EventClose)
		require.NoError(t, err)
		require.Equal(t, StateClosed, next)
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
		{name: "connected reply invalid", state: StateConnected, event: EventReply, want: StateConnected, wantErr: true},
		{name: "awaiting command prompt invalid", state: StateAwaitingCommand, event: EventPrompt, want: StateAwaitingCommand, wantErr: true},
		{name: "awaiting command reply invalid", state: StateAwaitingCommand, event: EventReply, want: StateAwaitingCommand, wantErr: true},
		{name: "awaiting reply send invalid", state: StateAwaitingReply, event: EventSend, want: StateAwaitingReply, wantErr: true},
		{name: "awaiting reply prompt invalid", state: StateAwaitingReply, event: EventPrompt, want: StateAwaitingReply, wantErr: true},
		{name: "closed send invalid", state: StateClosed, event: EventSend, want: StateClosed, wantErr: true},
		{name: "closed prompt invalid", state: StateClosed, event: EventPrompt, want: StateClosed, wantErr: true},
		{name: "awaiting reply reply valid", state: StateAwaitingReply, event: EventReply, want: StateConnected, wantErr: false},
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

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventSend)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
