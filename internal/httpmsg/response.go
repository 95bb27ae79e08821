package httpmsg

import (
	"fmt"
	"strconv"
)

// Response is a parsed HTTP response. Status is kept verbatim so that
// serialization reproduces the original status line.
type Response struct {
	Protocol string
	Status   string
	Reason   string
	Header   *Header
	Body     []byte
}

// ParseResponse parses raw response bytes.
func ParseResponse(raw []byte) (*Response, error) {
	lines, body := splitMessage(raw)

	protocol, status, reason, err := parseStatusLine(lines[0])
	if err != nil {
		return nil, err
	}
	header, err := parseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}

	return &Response{
		Protocol: protocol,
		Status:   status,
		Reason:   reason,
		Header:   header,
		Body:     body,
	}, nil
}

// StatusCode returns Status as an integer.
func (r *Response) StatusCode() (int, error) {
	code, err := strconv.Atoi(r.Status)
	if err != nil {
		return 0, fmt.Errorf("status %q is not numeric: %w", r.Status, err)
	}
	return code, nil
}

// Serialize renders the response back to wire bytes.
func (r *Response) Serialize() []byte {
	if r.Header == nil {
		r.Header = NewHeader()
	}
	return serialize(r.Protocol+" "+r.Status+" "+r.Reason, r.Header, r.Body)
}

func (r *Response) String() string {
	return string(r.Serialize())
}
