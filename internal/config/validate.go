package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Control.SocketPath) == "" {
		return nil, fmt.Errorf("control.socket_path must not be empty")
	}
	if cfg.Control.ConnectTimeoutMS <= 0 {
		return nil, fmt.Errorf("control.connect_timeout_ms must be > 0")
	}
	if cfg.Control.ReadTimeoutMS < 0 {
		return nil, fmt.Errorf("control.read_timeout_ms must be >= 0")
	}
	if cfg.Control.ReadTimeoutMS == 0 {
		warnings = append(warnings, Warning{Message: "control.read_timeout_ms=0: a stalled daemon can block replies indefinitely"})
	}
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if strings.TrimSpace(cfg.Web.Listen) == "" {
		return nil, fmt.Errorf("web.listen must not be empty")
	}
	if strings.TrimSpace(cfg.Plugins.Dir) == "" {
		return nil, fmt.Errorf("plugins.dir must not be empty")
	}
	if strings.TrimSpace(cfg.Plugins.AutoloadDir) == "" {
		return nil, fmt.Errorf("plugins.autoload_dir must not be empty")
	}

	return warnings, nil
}
