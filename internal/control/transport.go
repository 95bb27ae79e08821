// Package control speaks the daemon's prompt-delimited control protocol over
// a Unix domain stream socket.
package control

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

const (
	// Sentinel terminates every frame the daemon sends, including the banner.
	Sentinel = ">>> "

	// DefaultSocketPath is where the daemon listens unless configured otherwise.
	DefaultSocketPath = "/tmp/proxenet-control-socket"

	DefaultConnectTimeout = 5 * time.Second

	readChunkSize = 4096
)

// Options tunes dialing and framing.
type Options struct {
	ConnectTimeout time.Duration
	// ReadTimeout bounds each RecvFrame call. Zero blocks indefinitely.
	ReadTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	return o
}

// Transport owns one control socket connection.
type Transport struct {
	conn        net.Conn
	readTimeout time.Duration
	buf         []byte
	chunk       []byte

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the control socket at path.
func Dial(ctx context.Context, path string, opts Options) (*Transport, error) {
	opts = opts.withDefaults()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSocketNotFound, path)
		}
		return nil, &ConnectError{Path: path, Err: err}
	}

	dialer := net.Dialer{Timeout: opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, &ConnectError{Path: path, Err: err}
	}

	return newTransport(conn, opts.ReadTimeout), nil
}

func newTransport(conn net.Conn, readTimeout time.Duration) *Transport {
	return &Transport{
		conn:        conn,
		readTimeout: readTimeout,
		chunk:       make([]byte, readChunkSize),
	}
}

// RecvFrame reads until the buffered bytes end with Sentinel and returns the
// whole frame, sentinel included.
func (t *Transport) RecvFrame() ([]byte, error) {
	if t.readTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return nil, &FrameError{Err: fmt.Errorf("set read deadline: %w", err)}
		}
	}

	for !bytes.HasSuffix(t.buf, []byte(Sentinel)) {
		n, err := t.conn.Read(t.chunk)
		t.buf = append(t.buf, t.chunk[:n]...)
		if err != nil {
			if bytes.HasSuffix(t.buf, []byte(Sentinel)) {
				break
			}
			buffered := len(t.buf)
			t.buf = nil
			return nil, &FrameError{Buffered: buffered, Err: err}
		}
	}

	frame := t.buf
	t.buf = nil
	return frame, nil
}

// SendCommand writes text as one newline-terminated command.
func (t *Transport) SendCommand(text string) error {
	if len(text) == 0 || text[len(text)-1] != '\n' {
		text += "\n"
	}
	if _, err := t.conn.Write([]byte(text)); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// Close releases the socket. Later calls return the first result.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// SplitFrame separates the payload from the trailing prompt.
func SplitFrame(frame []byte) (payload, prompt []byte) {
	if !bytes.HasSuffix(frame, []byte(Sentinel)) {
		return frame, nil
	}
	cut := len(frame) - len(Sentinel)
	return frame[:cut], frame[cut:]
}

// Exchange runs one command on a fresh connection: drain the banner, send,
// read a single reply frame, close.
func Exchange(ctx context.Context, path, command string, opts Options) ([]byte, error) {
	t, err := Dial(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	if _, err := t.RecvFrame(); err != nil {
		return nil, fmt.Errorf("read banner: %w", err)
	}
	if err := t.SendCommand(command); err != nil {
		return nil, err
	}
	frame, err := t.RecvFrame()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	payload, _ := SplitFrame(frame)
	return payload, nil
}
