// Package cli parses the proxenetctl command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

type Command string

const (
	CommandRepl    Command = "repl"
	CommandExec    Command = "exec"
	CommandWeb     Command = "web"
	CommandDoctor  Command = "doctor"
	CommandHook    Command = "hook"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRepl:    {},
	CommandExec:    {},
	CommandWeb:     {},
	CommandDoctor:  {},
	CommandHook:    {},
	CommandVersion: {},
	CommandHelp:    {},
}

// HookKind selects which side of the hook contract `hook` exercises.
type HookKind string

const (
	HookRequest  HookKind = "request"
	HookResponse HookKind = "response"
)

type Parsed struct {
	Command    Command
	ConfigPath string
	SocketPath string
	Listen     string
	Verbose    bool
	ShowHelp   bool

	// Implicit is set when no command was named; the caller picks repl
	// for terminals and help otherwise.
	Implicit bool

	// ExecLine is the control command forwarded by exec.
	ExecLine string

	HookKind HookKind
	HookFile string
}

func newFlagSet(parsed *Parsed) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("proxenetctl", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&parsed.ConfigPath, "config", "", "config file path")
	flagSet.StringVar(&parsed.SocketPath, "socket", "", "control socket path")
	flagSet.StringVar(&parsed.Listen, "listen", "", "web listen address")
	flagSet.BoolVarP(&parsed.Verbose, "verbose", "v", false, "debug logging")
	flagSet.BoolVarP(&parsed.ShowHelp, "help", "h", false, "show help")
	flagSet.Bool("version", false, "show version")
	return flagSet
}

func Parse(args []string) (Parsed, error) {
	var parsed Parsed
	flagSet := newFlagSet(&parsed)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Parsed{Command: CommandHelp, ShowHelp: true}, nil
		}
		return Parsed{}, normalizeFlagError(err)
	}
	if flagSet.Changed("config") && strings.TrimSpace(parsed.ConfigPath) == "" {
		return Parsed{}, errors.New("--config requires a path")
	}
	if flagSet.Changed("socket") && strings.TrimSpace(parsed.SocketPath) == "" {
		return Parsed{}, errors.New("--socket requires a path")
	}

	if parsed.ShowHelp {
		parsed.Command = CommandHelp
		return parsed, nil
	}
	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		parsed.Command = CommandVersion
		return parsed, nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		parsed.Command = CommandRepl
		parsed.Implicit = true
		return parsed, nil
	}

	cmd := Command(rest[0])
	if _, ok := validCommands[cmd]; !ok {
		return Parsed{}, fmt.Errorf("unknown command: %s", rest[0])
	}
	parsed.Command = cmd
	parsed.ShowHelp = cmd == CommandHelp
	rest = rest[1:]

	switch cmd {
	case CommandExec:
		line := strings.TrimSpace(strings.Join(rest, " "))
		if line == "" {
			return Parsed{}, errors.New("exec requires a control command")
		}
		parsed.ExecLine = line
	case CommandHook:
		if len(rest) != 2 {
			return Parsed{}, errors.New("hook requires <request|response> FILE")
		}
		kind := HookKind(rest[0])
		if kind != HookRequest && kind != HookResponse {
			return Parsed{}, fmt.Errorf("unknown hook kind: %s", rest[0])
		}
		parsed.HookKind = kind
		parsed.HookFile = rest[1]
	default:
		if len(rest) > 0 {
			return Parsed{}, fmt.Errorf("unexpected arguments after command %q", cmd)
		}
	}

	return parsed, nil
}

// normalizeFlagError maps pflag's missing-value errors onto the terse forms
// used for path flags.
func normalizeFlagError(err error) error {
	msg := err.Error()
	if !strings.HasPrefix(msg, "flag needs an argument") {
		return err
	}
	for _, name := range []string{"--config", "--socket"} {
		if strings.Contains(msg, name) {
			return fmt.Errorf("%s requires a path", name)
		}
	}
	return err
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] [command] [args...]

Commands:
  repl                    Interactive control session (default on a terminal)
  exec COMMAND...         Send one control command and print the reply
  web                     Serve the web admin interface
  doctor                  Run configuration and environment checks
  hook request|response FILE
                          Run the built-in plugins over a raw HTTP message
  version                 Print version information
  help                    Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/proxenetctl/config.jsonc)
  --socket PATH   Control socket path (overrides control.socket_path)
  --listen ADDR   Web listen address (overrides web.listen)
  -v, --verbose   Debug logging
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
