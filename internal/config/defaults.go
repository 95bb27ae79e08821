package config

import (
	"path/filepath"

	"github.com/rbright/proxenetctl/internal/control"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	pluginsDir := "./proxenet-plugins"

	return Config{
		Control: ControlConfig{
			SocketPath:       control.DefaultSocketPath,
			ConnectTimeoutMS: int(control.DefaultConnectTimeout.Milliseconds()),
			ReadTimeoutMS:    30000,
		},
		Log: LogConfig{Level: "info"},
		Web: WebConfig{Listen: "localhost:8009"},
		Plugins: PluginsConfig{
			Dir:         pluginsDir,
			AutoloadDir: autoloadDirFor(pluginsDir),
		},
	}
}

func autoloadDirFor(pluginsDir string) string {
	return filepath.Join(pluginsDir, "autoload")
}
