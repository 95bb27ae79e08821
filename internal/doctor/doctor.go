// Package doctor runs readiness diagnostics for config, the control socket,
// and the plugin directories.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/proxenetctl/internal/config"
	"github.com/rbright/proxenetctl/internal/session"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes config, socket, and plugin directory checks.
func Run(ctx context.Context, cfg config.Loaded, logger *slog.Logger) Report {
	checks := []Check{checkConfig(cfg)}

	socket := checkSocket(cfg.Config.Control.SocketPath)
	checks = append(checks, socket)
	if socket.Pass {
		checks = append(checks, checkSession(ctx, cfg.Config, logger))
	}

	checks = append(checks, checkDir("plugins.dir", cfg.Config.Plugins.Dir))
	checks = append(checks, checkDir("plugins.autoload_dir", cfg.Config.Plugins.AutoloadDir))
	if db := strings.TrimSpace(cfg.Config.Plugins.SessionDB); db != "" {
		checks = append(checks, checkDir("plugins.session_db", filepath.Dir(db)))
	}

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found, using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// checkSocket validates that path exists and is a Unix socket.
func checkSocket(path string) Check {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Check{Name: "control.socket", Pass: false, Message: fmt.Sprintf("%s does not exist (is proxenet running?)", path)}
		}
		return Check{Name: "control.socket", Pass: false, Message: err.Error()}
	}
	if info.Mode()&os.ModeSocket == 0 {
		return Check{Name: "control.socket", Pass: false, Message: fmt.Sprintf("%s is not a socket", path)}
	}
	return Check{Name: "control.socket", Pass: true, Message: path}
}

// checkSession opens a full session and closes it without sending quit.
func checkSession(ctx context.Context, cfg config.Config, logger *slog.Logger) Check {
	s, err := session.Open(ctx, cfg.Control.SocketPath, cfg.Control.Options(), logger)
	if err != nil {
		return Check{Name: "control.session", Pass: false, Message: err.Error()}
	}
	defer s.Close()

	banner := strings.TrimSpace(s.Banner())
	if first, _, ok := strings.Cut(banner, "\n"); ok {
		banner = first
	}
	return Check{
		Name:    "control.session",
		Pass:    true,
		Message: fmt.Sprintf("%q, %d commands", banner, len(s.Vocabulary())),
	}
}

// checkDir validates that path exists and is a directory.
func checkDir(name, path string) Check {
	if strings.TrimSpace(path) == "" {
		return Check{Name: name, Pass: false, Message: "path is empty"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s does not exist", path)}
		}
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if !info.IsDir() {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is not a directory", path)}
	}
	return Check{Name: name, Pass: true, Message: path}
}
