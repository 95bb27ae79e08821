// Package plugins registers the bundled hook implementations.
package plugins

import (
	"fmt"
	"log/slog"

	"github.com/rbright/proxenetctl/internal/hook"
	"github.com/rbright/proxenetctl/internal/plugins/inflate"
	"github.com/rbright/proxenetctl/internal/plugins/sessionlog"
	"github.com/rbright/proxenetctl/internal/plugins/stripencoding"
	"github.com/rbright/proxenetctl/internal/plugins/tagrequest"
)

// Options wires plugin-owned resources. Plugins whose resource is nil are
// left out.
type Options struct {
	SessionLog *sessionlog.Store
	Inflate    inflate.Sink
	Logger     *slog.Logger
}

type entry struct {
	name   string
	plugin any
}

// Builtin returns a registry holding the bundled plugins in priority order.
func Builtin(opts Options) (*hook.Registry, error) {
	registry := hook.NewRegistry()

	entries := []entry{
		{name: "1StripEncoding", plugin: stripencoding.Plugin{}},
		{name: "2TagRequest", plugin: tagrequest.Plugin{}},
	}
	if opts.Inflate != nil {
		entries = append(entries, entry{name: "3Inflate", plugin: inflate.New(opts.Inflate, opts.Logger)})
	}
	if opts.SessionLog != nil {
		entries = append(entries, entry{name: "9SessionLog", plugin: sessionlog.New(opts.SessionLog)})
	}

	for _, e := range entries {
		if err := registry.Register(e.name, e.plugin); err != nil {
			return nil, fmt.Errorf("builtin plugins: %w", err)
		}
	}
	return registry, nil
}
