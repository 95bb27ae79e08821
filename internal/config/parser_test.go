package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCWithCommentsAndTrailingCommas(t *testing.T) {
	content := `
{
  // where the daemon listens
  "control": {
    "socket_path": "/run/proxenet/control.sock",
    "read_timeout_ms": 1500, /* per reply frame */
  },
  "log": { "level": "DEBUG" },
  "plugins": {
    "dir": "/opt/proxenet/plugins",
    "session_db": "/var/lib/proxenet/session.db",
  },
}
`
	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "/run/proxenet/control.sock", cfg.Control.SocketPath)
	require.Equal(t, 1500, cfg.Control.ReadTimeoutMS)
	require.Equal(t, 5000, cfg.Control.ConnectTimeoutMS)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/opt/proxenet/plugins", cfg.Plugins.Dir)
	require.Equal(t, "/opt/proxenet/plugins/autoload", cfg.Plugins.AutoloadDir)
	require.Equal(t, "/var/lib/proxenet/session.db", cfg.Plugins.SessionDB)

	opts := cfg.Control.Options()
	require.Equal(t, 5*time.Second, opts.ConnectTimeout)
	require.Equal(t, 1500*time.Millisecond, opts.ReadTimeout)
}

func TestParseAutoloadDir(t *testing.T) {
	cfg, _, err := Parse(`{}`, Default())
	require.NoError(t, err)
	require.Equal(t, "proxenet-plugins/autoload", cfg.Plugins.AutoloadDir)

	cfg, _, err = Parse(`{"plugins": {"autoload_dir": "/srv/autoload", "dir": "/srv/plugins"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "/srv/plugins", cfg.Plugins.Dir)
	require.Equal(t, "/srv/autoload", cfg.Plugins.AutoloadDir)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseCommentLikeTextInsideStringsSurvives(t *testing.T) {
	cfg, _, err := Parse(`{"web":{"listen":"unix:// not /* a comment */"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "unix:// not /* a comment */", cfg.Web.Listen)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown key", content: `{"control":{"sockt_path":"/x"}}`, wantErr: "unknown field"},
		{name: "type mismatch", content: "{\n  \"control\": {\"read_timeout_ms\": \"fast\"}\n}", wantErr: "line 2"},
		{name: "syntax", content: `{"log": }`, wantErr: "line 1"},
		{name: "multiple values", content: `{} {}`, wantErr: "multiple JSON values"},
		{name: "invalid level", content: `{"log":{"level":"loud"}}`, wantErr: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.content, Default())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseZeroReadTimeoutWarns(t *testing.T) {
	_, warnings, err := Parse(`{"control":{"read_timeout_ms":0}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "indefinitely")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8)
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 0)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)
}
