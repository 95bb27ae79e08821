package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/jsonc"
)

type jsoncConfig struct {
	Control *jsoncControl `json:"control"`
	Log     *jsoncLog     `json:"log"`
	Web     *jsoncWeb     `json:"web"`
	Plugins *jsoncPlugins `json:"plugins"`
}

type jsoncControl struct {
	SocketPath       *string `json:"socket_path"`
	ConnectTimeoutMS *int    `json:"connect_timeout_ms"`
	ReadTimeoutMS    *int    `json:"read_timeout_ms"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

type jsoncWeb struct {
	Listen *string `json:"listen"`
}

type jsoncPlugins struct {
	Dir         *string `json:"dir"`
	AutoloadDir *string `json:"autoload_dir"`
	SessionDB   *string `json:"session_db"`
}

// Parse reads JSONC configuration content over base and validates it.
// Empty content yields base.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg, err := decode(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// decode overlays the fields present in content onto base.
func decode(content string, base Config) (Config, error) {
	if strings.TrimSpace(content) == "" {
		return base, nil
	}

	// jsonc.ToJSON blanks comments in place, so offsets still match content.
	normalized := jsonc.ToJSON([]byte(content))

	decoder := json.NewDecoder(bytes.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, wrapJSONDecodeError(string(normalized), err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, wrapJSONDecodeError(string(normalized), err)
	}

	cfg := base
	payload.applyTo(&cfg)
	return cfg, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Control != nil {
		if payload.Control.SocketPath != nil {
			cfg.Control.SocketPath = strings.TrimSpace(*payload.Control.SocketPath)
		}
		if payload.Control.ConnectTimeoutMS != nil {
			cfg.Control.ConnectTimeoutMS = *payload.Control.ConnectTimeoutMS
		}
		if payload.Control.ReadTimeoutMS != nil {
			cfg.Control.ReadTimeoutMS = *payload.Control.ReadTimeoutMS
		}
	}

	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
	}

	if payload.Web != nil && payload.Web.Listen != nil {
		cfg.Web.Listen = strings.TrimSpace(*payload.Web.Listen)
	}

	if payload.Plugins != nil {
		if payload.Plugins.Dir != nil {
			cfg.Plugins.Dir = strings.TrimSpace(*payload.Plugins.Dir)
			// autoload follows the plugins directory unless set explicitly
			cfg.Plugins.AutoloadDir = autoloadDirFor(cfg.Plugins.Dir)
		}
		if payload.Plugins.AutoloadDir != nil {
			cfg.Plugins.AutoloadDir = strings.TrimSpace(*payload.Plugins.AutoloadDir)
		}
		if payload.Plugins.SessionDB != nil {
			cfg.Plugins.SessionDB = strings.TrimSpace(*payload.Plugins.SessionDB)
		}
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
