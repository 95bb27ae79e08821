// Package fsm defines the control session lifecycle and its transition table.
package fsm

import "fmt"

type State string

type Event string

const (
	StateConnected       State = "connected"
	StateAwaitingCommand State = "awaiting_command"
	StateAwaitingReply   State = "awaiting_reply"
	StateClosed          State = "closed"
)

const (
	EventPrompt Event = "prompt"
	EventSend   Event = "send"
	EventReply  Event = "reply"
	EventClose  Event = "close"
)

func Transition(current State, event Event) (State, error) {
	if event == EventClose {
		return StateClosed, nil
	}

	switch current {
	case StateConnected:
		switch event {
		case EventPrompt:
			return StateAwaitingCommand, nil
		case EventSend:
			// bootstrap queries go out without a local prompt
			return StateAwaitingReply, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingCommand:
		switch event {
		case EventSend:
			return StateAwaitingReply, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingReply:
		switch event {
		case EventReply:
			return StateConnected, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateClosed:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
