package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Overrides carries command-line values that win over the file.
type Overrides struct {
	SocketPath string
	Listen     string
}

func (o Overrides) applyTo(cfg *Config) {
	if socket := strings.TrimSpace(o.SocketPath); socket != "" {
		cfg.Control.SocketPath = socket
	}
	if listen := strings.TrimSpace(o.Listen); listen != "" {
		cfg.Web.Listen = listen
	}
}

// Loaded is the effective configuration plus where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config file when present, layers overrides on top, and
// validates the result. A missing file or control socket is only a warning.
func Load(explicitPath string, overrides Overrides) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: resolvedPath}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		loaded.Exists = true
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, err := decode(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	overrides.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("config %q: %w", resolvedPath, err)
	}
	loaded.Config = cfg
	loaded.Warnings = append(loaded.Warnings, warnings...)

	if _, err := os.Stat(cfg.Control.SocketPath); errors.Is(err, os.ErrNotExist) {
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("control socket %q not found; is proxenet running?", cfg.Control.SocketPath),
		})
	}
	return loaded, nil
}
