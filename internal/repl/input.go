package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rbright/proxenetctl/internal/complete"
)

// PlainReader reads newline-terminated lines from a non-interactive input.
type PlainReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	return &PlainReader{in: bufio.NewReader(in), out: out}
}

func (p *PlainReader) SetPrompt(prompt string) {
	p.prompt = prompt
}

func (p *PlainReader) ReadLine() (string, error) {
	if p.out != nil && p.prompt != "" {
		fmt.Fprint(p.out, p.prompt)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// TerminalReader edits lines on a terminal with tab completion. The
// terminal is raw only while a line is being read, so signal keys keep
// working while a reply is awaited.
type TerminalReader struct {
	term    *term.Terminal
	raw     func() (restore func() error, err error)
	restore func() error
}

// NewTerminalReader reads from f. Close puts f back into its initial mode.
func NewTerminalReader(f *os.File, out io.Writer, completer *complete.Completer) (*TerminalReader, error) {
	fd := int(f.Fd())
	initial, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("read terminal state: %w", err)
	}

	screen := struct {
		io.Reader
		io.Writer
	}{f, out}
	raw := func() (func() error, error) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("enable raw terminal: %w", err)
		}
		return func() error { return term.Restore(fd, state) }, nil
	}

	r := newTerminalReader(screen, raw, completer)
	r.restore = func() error { return term.Restore(fd, initial) }
	if width, height, err := term.GetSize(fd); err == nil {
		_ = r.term.SetSize(width, height)
	}
	return r, nil
}

func newTerminalReader(screen io.ReadWriter, raw func() (func() error, error), completer *complete.Completer) *TerminalReader {
	t := term.NewTerminal(screen, "")
	tabs := &tabCompleter{completer: completer}
	t.AutoCompleteCallback = tabs.complete
	return &TerminalReader{term: t, raw: raw}
}

func (r *TerminalReader) SetPrompt(prompt string) {
	r.term.SetPrompt(prompt)
}

func (r *TerminalReader) ReadLine() (string, error) {
	restore, err := r.raw()
	if err != nil {
		return "", err
	}
	defer func() { _ = restore() }()
	return r.term.ReadLine()
}

// Writer translates newlines for the terminal.
func (r *TerminalReader) Writer() io.Writer {
	return r.term
}

func (r *TerminalReader) Close() error {
	if r.restore == nil {
		return nil
	}
	return r.restore()
}

// tabCompleter completes the command word. Repeated tabs cycle through the
// matches of the prefix that was typed before the first tab.
type tabCompleter struct {
	completer *complete.Completer

	cycling bool
	prefix  string
	index   int
	last    string
}

func (c *tabCompleter) complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		c.cycling = false
		return "", 0, false
	}
	if c.completer == nil {
		return "", 0, false
	}

	head := line[:pos]
	if c.cycling && line == c.last {
		c.index++
	} else {
		if strings.ContainsAny(head, " \t") {
			return "", 0, false
		}
		c.prefix = head
		c.index = 0
	}

	match, ok := c.completer.Complete(c.prefix, c.index)
	if !ok && c.index > 0 {
		c.index = 0
		match, ok = c.completer.Complete(c.prefix, 0)
	}
	if !ok {
		c.cycling = false
		return "", 0, false
	}

	next := match + line[pos:]
	c.cycling = true
	c.last = next
	return next, len(match), true
}
