package session

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/proxenetctl/internal/control"
	"github.com/rbright/proxenetctl/internal/fsm"
)

const helpReply = `{"Command list":{"info":"Display information about environment","quit":"Make proxenet leave kindly"}}`

// daemonStub mimics the control server: banner, then one prompted frame per line.
type daemonStub struct {
	socketPath string
	listener   net.Listener

	mu       sync.Mutex
	received []string
	closed   chan struct{}
}

func newDaemonStub(t *testing.T, reply func(line string) string) *daemonStub {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "control.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	stub := &daemonStub{socketPath: socketPath, listener: listener, closed: make(chan struct{})}
	go stub.serve(reply)
	return stub
}

func (d *daemonStub) serve(reply func(line string) string) {
	conn, err := d.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	defer close(d.closed)

	_, _ = conn.Write([]byte("Welcome on proxenet control interface\n" + control.Sentinel))

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")

		d.mu.Lock()
		d.received = append(d.received, line)
		d.mu.Unlock()

		if line == "quit" {
			_, _ = conn.Write([]byte("Leaving gracefully\n" + control.Sentinel))
			// wait for the client to hang up
			_, _ = reader.ReadString('\n')
			return
		}
		_, _ = conn.Write([]byte(reply(line) + control.Sentinel))
	}
}

func (d *daemonStub) lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.received))
	copy(out, d.received)
	return out
}

func defaultReplies(line string) string {
	switch line {
	case "help":
		return helpReply
	case "":
		return ""
	case "info":
		return `{"info":{"version":"0.4","threads":{"max":10}}}`
	default:
		return "Invalid command\n"
	}
}

func openStub(t *testing.T, stub *daemonStub) *Session {
	t.Helper()
	s, err := Open(context.Background(), stub.socketPath, control.Options{ReadTimeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	return s
}

func TestOpenDiscoversVocabularyAndQuitCloses(t *testing.T) {
	stub := newDaemonStub(t, defaultReplies)
	s := openStub(t, stub)

	require.Equal(t, fsm.StateConnected, s.State())
	require.Equal(t, Vocabulary{"info", "quit"}, s.Vocabulary())
	require.Contains(t, s.Banner(), "Welcome")
	require.Equal(t, control.Sentinel, s.Prompt())

	reply, err := s.Exchange(context.Background(), "quit")
	require.NoError(t, err)
	require.Equal(t, ReplyText, reply.Kind)
	require.Contains(t, reply.Raw, "Leaving gracefully")
	require.Equal(t, fsm.StateClosed, s.State())

	select {
	case <-stub.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon stub did not observe the socket closing")
	}
	require.Equal(t, []string{"help", "", "quit"}, stub.lines())

	_, err = s.Exchange(context.Background(), "info")
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, s.Close())
}

func TestExchangeDecodesJSONAndText(t *testing.T) {
	stub := newDaemonStub(t, defaultReplies)
	s := openStub(t, stub)
	defer s.Close()

	reply, err := s.Exchange(context.Background(), "  info  ")
	require.NoError(t, err)
	require.Equal(t, ReplyJSON, reply.Kind)
	require.Equal(t, "0.4", reply.JSON.Get("info.version").String())
	require.Equal(t, fsm.StateConnected, s.State())

	reply, err = s.Exchange(context.Background(), "bogus")
	require.NoError(t, err)
	require.Equal(t, ReplyText, reply.Kind)
	require.Equal(t, "Invalid command\n", reply.Render())

	require.Equal(t, []string{"help", "", "info", "bogus"}, stub.lines())
}

func TestAwaitCommandThenExchange(t *testing.T) {
	stub := newDaemonStub(t, defaultReplies)
	s := openStub(t, stub)
	defer s.Close()

	require.NoError(t, s.AwaitCommand())
	require.Equal(t, fsm.StateAwaitingCommand, s.State())

	_, err := s.Exchange(context.Background(), "info")
	require.NoError(t, err)
	require.Equal(t, fsm.StateConnected, s.State())
}

func TestOpenWithNonJSONHelpLeavesEmptyVocabulary(t *testing.T) {
	stub := newDaemonStub(t, func(line string) string {
		if line == "help" {
			return "Command list:\ninfo\tDisplay information\n"
		}
		return ""
	})
	s := openStub(t, stub)
	defer s.Close()

	require.Empty(t, s.Vocabulary())
	require.Equal(t, fsm.StateConnected, s.State())
}

func TestExchangePeerHangupClosesSession(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("banner" + control.Sentinel))
		reader := bufio.NewReader(conn)
		_, _ = reader.ReadString('\n')
		_, _ = conn.Write([]byte(helpReply + control.Sentinel))
		_, _ = reader.ReadString('\n')
		_, _ = conn.Write([]byte(control.Sentinel))
		_, _ = reader.ReadString('\n')
		_, _ = conn.Write([]byte("half a reply"))
	}()

	s, err := Open(context.Background(), socketPath, control.Options{ReadTimeout: 2 * time.Second}, nil)
	require.NoError(t, err)

	_, err = s.Exchange(context.Background(), "info")
	require.ErrorIs(t, err, control.ErrFrameRead)
	require.Equal(t, fsm.StateClosed, s.State())
}

func TestExchangeCancelledWhileAwaitingReply(t *testing.T) {
	stub := newDaemonStub(t, func(line string) string {
		if line == "threads" {
			time.Sleep(time.Second)
		}
		return defaultReplies(line)
	})
	s := openStub(t, stub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Exchange(ctx, "threads")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, fsm.StateClosed, s.State())
	require.NoError(t, s.Close())
}

func TestOpenMissingSocket(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "none.sock"), control.Options{}, nil)
	require.ErrorIs(t, err, control.ErrSocketNotFound)
}

func TestCommandName(t *testing.T) {
	require.Equal(t, "config", CommandName(`config set logfile "/tmp/a b"`))
	require.Equal(t, "plugin", CommandName("  plugin   list "))
	require.Equal(t, "config", CommandName(`config set key "unterminated`))
	require.Equal(t, "", CommandName("   "))
}
