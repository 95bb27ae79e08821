package web

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var (
	ErrInvalidName   = errors.New("invalid plugin name")
	ErrPluginMissing = errors.New("plugin not found")
)

// validName accepts a single path element that is safe to put on a control
// command line: no separators, whitespace, or control characters.
func validName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.IndexFunc(name, func(r rune) bool {
		return r == '/' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ToggleAutoload flips <autoloadDir>/<name> between absent and a symlink to
// <pluginsDir>/<name>. It reports whether autoload is enabled afterwards.
func ToggleAutoload(pluginsDir, autoloadDir, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}

	link := filepath.Join(autoloadDir, name)
	if info, err := os.Lstat(link); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return false, fmt.Errorf("autoload entry %q is not a symlink", link)
		}
		if err := os.Remove(link); err != nil {
			return false, fmt.Errorf("disable autoload: %w", err)
		}
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	target, err := filepath.Abs(filepath.Join(pluginsDir, name))
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%w: %s", ErrPluginMissing, target)
		}
		return false, err
	}
	if err := os.MkdirAll(autoloadDir, 0o755); err != nil {
		return false, err
	}
	if err := os.Symlink(target, link); err != nil {
		return false, fmt.Errorf("enable autoload: %w", err)
	}
	return true, nil
}
