package control

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrSocketNotFound means the control socket path did not exist before dialing.
	ErrSocketNotFound = errors.New("control socket not found")
	// ErrConnectFailed matches every *ConnectError.
	ErrConnectFailed = errors.New("connect to control socket failed")
	// ErrFrameRead matches every *FrameError.
	ErrFrameRead = errors.New("read control frame failed")
)

// ConnectError wraps an OS-level dial failure, including timeouts.
type ConnectError struct {
	Path string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Path, e.Err)
}

func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnectFailed, e.Err}
}

// FrameError wraps a read failure observed before the sentinel arrived.
type FrameError struct {
	Buffered int
	Err      error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("read frame (%d bytes buffered): %v", e.Buffered, e.Err)
}

func (e *FrameError) Unwrap() []error {
	return []error{ErrFrameRead, e.Err}
}

// IsUnavailable reports failures that mean no daemon is listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSocketNotFound) || errors.Is(err, syscall.ECONNREFUSED)
}
