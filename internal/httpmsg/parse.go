// Package httpmsg parses raw HTTP request/response bytes into a mutable form
// and serializes them back to wire bytes for plugin hooks.
package httpmsg

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

const crlf = "\r\n"

var headSeparator = []byte(crlf + crlf)

// ErrMalformed is matched by every *ParseError.
var ErrMalformed = errors.New("malformed http message")

// ParseError reports the head line that failed to tokenize.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse http message: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// splitMessage separates the head lines from the verbatim body. Input without
// a blank line is treated as head only.
func splitMessage(raw []byte) ([]string, []byte) {
	head := raw
	var body []byte
	if idx := bytes.Index(raw, headSeparator); idx >= 0 {
		head = raw[:idx]
		body = append([]byte(nil), raw[idx+len(headSeparator):]...)
	}

	lines := strings.Split(string(head), crlf)
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, body
}

// nextField cuts one whitespace-delimited token off the front of s and returns
// the remainder with its leading whitespace removed.
func nextField(s string) (field, rest string, ok bool) {
	idx := strings.IndexAny(s, " \t")
	if idx <= 0 {
		return "", "", false
	}
	return s[:idx], strings.TrimLeft(s[idx:], " \t"), true
}

func parseRequestLine(line string) (method, path, protocol string, err error) {
	fail := &ParseError{Line: 0, Text: line, Reason: "request line must be METHOD PATH PROTOCOL"}

	method, rest, ok := nextField(line)
	if !ok {
		return "", "", "", fail
	}
	path, protocol, ok = nextField(rest)
	if !ok || protocol == "" {
		return "", "", "", fail
	}
	return method, path, protocol, nil
}

func parseStatusLine(line string) (protocol, status, reason string, err error) {
	fail := &ParseError{Line: 0, Text: line, Reason: "status line must be PROTOCOL STATUS REASON"}

	protocol, rest, ok := nextField(line)
	if !ok {
		return "", "", "", fail
	}
	// Reason may be empty, but the space after the status is mandatory.
	status, reason, ok = nextField(rest)
	if !ok {
		return "", "", "", fail
	}
	return protocol, status, reason, nil
}

func parseHeaders(lines []string) (*Header, error) {
	header := NewHeader()
	for i, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &ParseError{Line: i + 1, Text: line, Reason: "header line has no colon"}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, &ParseError{Line: i + 1, Text: line, Reason: "header line has an empty name"}
		}
		header.Set(key, strings.TrimSpace(value))
	}
	return header, nil
}

func serialize(firstLine string, header *Header, body []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(firstLine) + len(body) + 64*header.Len())

	b.WriteString(firstLine)
	for _, key := range header.keys {
		b.WriteString(crlf)
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(header.values[key])
	}
	// An empty body still terminates the head so the message stays well-formed.
	b.Write(headSeparator)
	b.Write(body)
	return b.Bytes()
}
