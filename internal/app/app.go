// Package app dispatches parsed commands to the control front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rbright/proxenetctl/internal/cli"
	"github.com/rbright/proxenetctl/internal/complete"
	"github.com/rbright/proxenetctl/internal/config"
	"github.com/rbright/proxenetctl/internal/control"
	"github.com/rbright/proxenetctl/internal/doctor"
	"github.com/rbright/proxenetctl/internal/fsm"
	"github.com/rbright/proxenetctl/internal/hook"
	"github.com/rbright/proxenetctl/internal/logging"
	"github.com/rbright/proxenetctl/internal/plugins"
	"github.com/rbright/proxenetctl/internal/plugins/inflate"
	"github.com/rbright/proxenetctl/internal/plugins/sessionlog"
	"github.com/rbright/proxenetctl/internal/repl"
	"github.com/rbright/proxenetctl/internal/session"
	"github.com/rbright/proxenetctl/internal/version"
	"github.com/rbright/proxenetctl/internal/web"
)

const binaryName = "proxenetctl"

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.Implicit && !isTerminal(r.Stdin) {
		parsed.Command = cli.CommandHelp
		parsed.ShowHelp = true
	}
	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath, config.Overrides{
		SocketPath: parsed.SocketPath,
		Listen:     parsed.Listen,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	level, err := logging.ParseLevel(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if parsed.Verbose {
		level = slog.LevelDebug
	}

	logRuntime, err := logging.New(logging.Options{Level: level, Console: consoleWriter(r.Stderr)})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"socket", cfgLoaded.Config.Control.SocketPath,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, logger)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandRepl:
		return r.commandRepl(ctx, cfgLoaded.Config, logger)
	case cli.CommandExec:
		return r.commandExec(ctx, cfgLoaded.Config, parsed.ExecLine, logger)
	case cli.CommandWeb:
		return r.commandWeb(ctx, cfgLoaded.Config, logger)
	case cli.CommandHook:
		return r.commandHook(cfgLoaded.Config, parsed.HookKind, parsed.HookFile, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) openSession(ctx context.Context, cfg config.Config, logger *slog.Logger) (*session.Session, bool) {
	s, err := session.Open(ctx, cfg.Control.SocketPath, cfg.Control.Options(), logger)
	if err != nil {
		r.reportControlError(cfg, err, logger)
		return nil, false
	}
	return s, true
}

func (r Runner) reportControlError(cfg config.Config, err error, logger *slog.Logger) {
	logger.Error("control session failed", "socket", cfg.Control.SocketPath, "error", err.Error())
	if control.IsUnavailable(err) {
		fmt.Fprintf(r.Stderr, "error: proxenet is not running (no control socket at %s)\n", cfg.Control.SocketPath)
		return
	}
	fmt.Fprintf(r.Stderr, "error: %v\n", err)
}

func (r Runner) commandRepl(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	s, ok := r.openSession(ctx, cfg, logger)
	if !ok {
		return 1
	}

	runner := repl.Runner{Session: s, Out: r.Stdout, Logger: logger}
	if f, isFile := r.Stdin.(*os.File); isFile && isTerminal(f) {
		reader, err := repl.NewTerminalReader(f, r.Stdout, complete.New(s.Vocabulary()))
		if err != nil {
			_ = s.Close()
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = reader.Close() }()
		runner.Lines = reader
		runner.Out = reader.Writer()
	} else {
		runner.Lines = repl.NewPlainReader(r.Stdin, r.Stdout)
	}

	if err := runner.Run(ctx); err != nil {
		r.reportControlError(cfg, err, logger)
		return 1
	}
	return 0
}

func (r Runner) commandExec(ctx context.Context, cfg config.Config, line string, logger *slog.Logger) int {
	s, ok := r.openSession(ctx, cfg, logger)
	if !ok {
		return 1
	}
	defer func() { _ = s.Close() }()

	name := session.CommandName(line)
	if vocab := s.Vocabulary(); len(vocab) > 0 && !vocab.Contains(name) {
		logger.Warn("command not advertised by daemon", "command", name)
	}

	reply, err := s.Exchange(ctx, line)
	if err != nil {
		r.reportControlError(cfg, err, logger)
		return 1
	}
	out := reply.Render()
	fmt.Fprint(r.Stdout, out)
	if out != "" && !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(r.Stdout)
	}
	if s.State() == fsm.StateClosed {
		logger.Info("control session closed by command", "command", name)
	}
	return 0
}

func (r Runner) commandWeb(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	server := web.New(web.Config{
		SocketPath:  cfg.Control.SocketPath,
		Control:     cfg.Control.Options(),
		PluginsDir:  cfg.Plugins.Dir,
		AutoloadDir: cfg.Plugins.AutoloadDir,
		Logger:      logger,
	})
	fmt.Fprintf(r.Stdout, "serving web admin on http://%s\n", cfg.Web.Listen)
	if err := server.ListenAndServe(ctx, cfg.Web.Listen); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("web admin failed", "error", err.Error())
		return 1
	}
	return 0
}

// commandHook runs the bundled plugins over one raw message read from path
// and prints the transformed message.
func (r Runner) commandHook(cfg config.Config, kind cli.HookKind, path string, logger *slog.Logger) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	opts := plugins.Options{
		Logger: logger,
		Inflate: func(body inflate.Body) {
			logger.Info("inflated body", "id", body.ID, "kind", body.Kind, "encoding", body.Encoding, "bytes", len(body.Data), "decoded", body.Decoded)
		},
	}
	if dbPath := strings.TrimSpace(cfg.Plugins.SessionDB); dbPath != "" {
		store, err := sessionlog.Open(dbPath)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: open session log: %v\n", err)
			return 1
		}
		defer func() { _ = store.Close() }()
		opts.SessionLog = store
	}

	registry, err := plugins.Builtin(opts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	out, err := applyHook(registry, kind, raw)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	_, _ = r.Stdout.Write(out)
	return 0
}

func applyHook(registry *hook.Registry, kind cli.HookKind, raw []byte) ([]byte, error) {
	const id = 1
	switch kind {
	case cli.HookRequest:
		return registry.ApplyRequest(id, raw)
	case cli.HookResponse:
		return registry.ApplyResponse(id, raw)
	default:
		return nil, errors.New("unknown hook kind " + string(kind))
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && f != nil && term.IsTerminal(int(f.Fd()))
}

func consoleWriter(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	return logging.ConsoleWriter(f)
}
