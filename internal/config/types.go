// Package config resolves, parses, validates, and defaults proxenetctl configuration.
package config

import (
	"time"

	"github.com/rbright/proxenetctl/internal/control"
)

// Config is the fully materialized runtime configuration used by proxenetctl.
type Config struct {
	Control ControlConfig
	Log     LogConfig
	Web     WebConfig
	Plugins PluginsConfig
}

// ControlConfig locates the daemon control socket and bounds its I/O.
type ControlConfig struct {
	SocketPath       string
	ConnectTimeoutMS int
	// ReadTimeoutMS bounds one reply frame; 0 waits forever.
	ReadTimeoutMS int
}

// Options converts the millisecond settings for the transport.
func (c ControlConfig) Options() control.Options {
	return control.Options{
		ConnectTimeout: time.Duration(c.ConnectTimeoutMS) * time.Millisecond,
		ReadTimeout:    time.Duration(c.ReadTimeoutMS) * time.Millisecond,
	}
}

// LogConfig controls console log verbosity.
type LogConfig struct {
	Level string
}

// WebConfig controls the web admin listener.
type WebConfig struct {
	Listen string
}

// PluginsConfig locates plugin files and plugin-owned resources.
type PluginsConfig struct {
	Dir         string
	AutoloadDir string
	// SessionDB enables the session log plugin when set.
	SessionDB string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
