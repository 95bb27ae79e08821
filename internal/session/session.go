// Package session runs the half-duplex control conversation with the daemon:
// banner drain, command vocabulary discovery, and one exchange at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/shlex"

	"github.com/rbright/proxenetctl/internal/control"
	"github.com/rbright/proxenetctl/internal/fsm"
)

const (
	commandHelp = "help"
	commandQuit = "quit"
)

// ErrClosed is returned by Exchange once the session reached the closed state.
var ErrClosed = errors.New("control session closed")

// Session owns one control transport and its lifecycle state.
type Session struct {
	logger    *slog.Logger
	transport *control.Transport

	mu    sync.RWMutex
	state fsm.State

	banner     string
	prompt     string
	vocabulary Vocabulary
}

// Open dials the daemon, drains its banner, and discovers the command vocabulary.
func Open(ctx context.Context, path string, opts control.Options, logger *slog.Logger) (*Session, error) {
	transport, err := control.Dial(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return start(ctx, transport, logger)
}

func start(ctx context.Context, transport *control.Transport, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		logger:    logger,
		transport: transport,
		state:     fsm.StateConnected,
	}

	frame, err := s.recvFrame(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("read banner: %w", err)
	}
	payload, prompt := control.SplitFrame(frame)
	s.banner = string(payload)
	s.prompt = string(prompt)

	if err := s.discover(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// discover sends help, keeps the command names of the single top-level key,
// then sends the empty line the daemon expects and drains its frame.
func (s *Session) discover(ctx context.Context) error {
	reply, err := s.roundTrip(ctx, commandHelp)
	if err != nil {
		return fmt.Errorf("discover commands: %w", err)
	}

	vocabulary, vocabErr := ParseVocabulary(reply)
	if vocabErr != nil {
		s.logger.Warn("command discovery failed; completion disabled", "error", vocabErr.Error())
	}
	s.vocabulary = vocabulary

	if _, err := s.roundTrip(ctx, ""); err != nil {
		return fmt.Errorf("discover commands: %w", err)
	}
	s.logger.Debug("command vocabulary loaded", "count", len(vocabulary))
	return nil
}

// AwaitCommand marks the session as blocked on local input.
func (s *Session) AwaitCommand() error {
	return s.transition(fsm.EventPrompt)
}

// Exchange sends one command and returns the decoded reply. Sending quit
// drains the final frame and closes the session.
func (s *Session) Exchange(ctx context.Context, command string) (Reply, error) {
	switch s.State() {
	case fsm.StateClosed:
		return Reply{}, ErrClosed
	case fsm.StateConnected:
		if err := s.AwaitCommand(); err != nil {
			return Reply{}, err
		}
	}

	command = strings.TrimSpace(command)
	s.logger.Info("control command", "command", CommandName(command))

	if command == commandQuit {
		reply, err := s.roundTrip(ctx, command)
		_ = s.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return Reply{}, err
		}
		return reply, nil
	}

	reply, err := s.roundTrip(ctx, command)
	if err != nil {
		_ = s.Close()
		return Reply{}, err
	}
	return reply, nil
}

func (s *Session) roundTrip(ctx context.Context, command string) (Reply, error) {
	if err := s.transition(fsm.EventSend); err != nil {
		return Reply{}, err
	}
	if err := s.transport.SendCommand(command); err != nil {
		return Reply{}, err
	}

	frame, err := s.recvFrame(ctx)
	if err != nil {
		return Reply{}, err
	}
	payload, prompt := control.SplitFrame(frame)

	s.mu.Lock()
	s.prompt = string(prompt)
	s.mu.Unlock()

	if err := s.transition(fsm.EventReply); err != nil {
		return Reply{}, err
	}
	return DecodeReply(payload), nil
}

// recvFrame closes the session when ctx ends so the blocked read returns.
func (s *Session) recvFrame(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	frame, err := s.transport.RecvFrame()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return frame, nil
}

// Close moves the session to closed and releases the socket exactly once.
func (s *Session) Close() error {
	s.mu.Lock()
	s.state, _ = fsm.Transition(s.state, fsm.EventClose)
	s.mu.Unlock()
	return s.transport.Close()
}

// State returns the current FSM state snapshot.
func (s *Session) State() fsm.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) transition(event fsm.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fsm.Transition(s.state, event)
	if err != nil {
		if s.state == fsm.StateClosed {
			return ErrClosed
		}
		return err
	}
	s.state = next
	return nil
}

// Banner is the payload of the daemon's greeting frame.
func (s *Session) Banner() string {
	return s.banner
}

// Prompt is the prompt text that ended the most recent frame.
func (s *Session) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// Vocabulary returns a copy of the discovered command names.
func (s *Session) Vocabulary() Vocabulary {
	out := make(Vocabulary, len(s.vocabulary))
	copy(out, s.vocabulary)
	return out
}

// CommandName returns the leading word of a command line, for logs that must
// not carry arguments such as config values.
func CommandName(line string) string {
	fields, err := shlex.Split(line)
	if err != nil || len(fields) == 0 {
		fields = strings.Fields(line)
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
