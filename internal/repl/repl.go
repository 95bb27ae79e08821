// Package repl drives an interactive control session: one prompt, one
// command, one rendered reply at a time.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rbright/proxenetctl/internal/control"
	"github.com/rbright/proxenetctl/internal/fsm"
	"github.com/rbright/proxenetctl/internal/session"
)

// LineReader yields one line of operator input per call. io.EOF ends the loop.
type LineReader interface {
	SetPrompt(prompt string)
	ReadLine() (string, error)
}

// Runner ties a session to an input source and an output sink.
type Runner struct {
	Session *session.Session
	Lines   LineReader
	Out     io.Writer
	Logger  *slog.Logger
}

// Run prints the banner, then loops until quit, EOF, or ctx ends. The
// session is closed on every return path.
func (r Runner) Run(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defer r.Session.Close()

	if banner := strings.TrimSpace(r.Session.Banner()); banner != "" {
		fmt.Fprintln(r.Out, banner)
	}
	fmt.Fprintf(r.Out, "%d commands available, type help for details\n", len(r.Session.Vocabulary()))

	for {
		if r.Session.State() == fsm.StateConnected {
			if err := r.Session.AwaitCommand(); err != nil {
				return err
			}
		}

		prompt := r.Session.Prompt()
		if prompt == "" {
			prompt = control.Sentinel
		}
		r.Lines.SetPrompt(prompt)

		line, err := readLine(ctx, r.Lines)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				logger.Info("repl input closed")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, err := r.Session.Exchange(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if out := reply.Render(); out != "" {
			fmt.Fprint(r.Out, out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(r.Out)
			}
		}
		if r.Session.State() == fsm.StateClosed {
			return nil
		}
	}
}

type lineResult struct {
	line string
	err  error
}

// readLine returns early when ctx ends; the reader goroutine is abandoned
// and finishes when its input does.
func readLine(ctx context.Context, lines LineReader) (string, error) {
	done := make(chan lineResult, 1)
	go func() {
		line, err := lines.ReadLine()
		done <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.line, res.err
	}
}
