// Package inflate surfaces the decoded body of compressed messages for
// inspection without altering the traffic.
package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/rbright/proxenetctl/internal/httpmsg"
)

const maxDecodedSize = 16 << 20

// ErrTooLarge is returned with the first maxDecodedSize bytes when a body
// decodes to more than that.
var ErrTooLarge = errors.New("decoded body exceeds size limit")

// Body is one decoded message body handed to a Sink.
type Body struct {
	ID       uint64
	Kind     string
	Encoding string
	Data     []byte
	// Decoded is false when the body could not be decompressed and Data is raw.
	Decoded bool
	// Truncated is set when the decoded body exceeded the size limit.
	Truncated bool
}

// Sink receives decoded bodies. It may be called concurrently.
type Sink func(Body)

type Plugin struct {
	sink   Sink
	logger *slog.Logger
}

func New(sink Sink, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Plugin{sink: sink, logger: logger}
}

func (p *Plugin) OnRequest(id uint64, raw []byte) ([]byte, error) {
	req, err := httpmsg.ParseRequest(raw)
	if err != nil {
		p.logger.Debug("inflate: skip unparsable request", "id", id, "error", err.Error())
		return raw, nil
	}
	p.report(id, "request", req.Header, req.Body)
	return raw, nil
}

func (p *Plugin) OnResponse(id uint64, raw []byte) ([]byte, error) {
	resp, err := httpmsg.ParseResponse(raw)
	if err != nil {
		p.logger.Debug("inflate: skip unparsable response", "id", id, "error", err.Error())
		return raw, nil
	}
	p.report(id, "response", resp.Header, resp.Body)
	return raw, nil
}

func (p *Plugin) report(id uint64, kind string, header *httpmsg.Header, body []byte) {
	if len(body) == 0 || p.sink == nil {
		return
	}

	encoding := strings.ToLower(strings.TrimSpace(header.Get("Content-Encoding")))
	data, err := Decode(encoding, body)
	if errors.Is(err, ErrTooLarge) {
		p.logger.Warn("inflate: decoded body truncated", "id", id, "kind", kind, "encoding", encoding, "limit", maxDecodedSize)
		p.sink(Body{ID: id, Kind: kind, Encoding: encoding, Data: data, Decoded: true, Truncated: true})
		return
	}
	if err != nil {
		p.logger.Debug("inflate: body not decodable", "id", id, "kind", kind, "encoding", encoding, "error", err.Error())
		p.sink(Body{ID: id, Kind: kind, Encoding: encoding, Data: body})
		return
	}
	p.sink(Body{ID: id, Kind: kind, Encoding: encoding, Data: data, Decoded: true})
}

// Decode decompresses body per a Content-Encoding value. An empty encoding is
// tried as zlib, which is what unlabelled deflate payloads usually are.
func Decode(encoding string, body []byte) ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch encoding {
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(body))
	case "deflate", "":
		r, err = zlib.NewReader(bytes.NewReader(body))
		if err != nil && encoding == "deflate" {
			// some servers send raw deflate without the zlib wrapper
			r, err = flate.NewReader(bytes.NewReader(body)), nil
		}
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s reader: %w", encodingName(encoding), err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, maxDecodedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", encodingName(encoding), err)
	}
	if len(data) > maxDecodedSize {
		return data[:maxDecodedSize], fmt.Errorf("decode %s body: %w", encodingName(encoding), ErrTooLarge)
	}
	return data, nil
}

func encodingName(encoding string) string {
	if encoding == "" {
		return "zlib"
	}
	return encoding
}
