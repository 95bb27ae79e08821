package httpmsg

// Request is a parsed HTTP request.
type Request struct {
	Method   string
	Path     string
	Protocol string
	Header   *Header
	Body     []byte
}

// ParseRequest parses raw request bytes.
func ParseRequest(raw []byte) (*Request, error) {
	lines, body := splitMessage(raw)

	method, path, protocol, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}
	header, err := parseHeaders(lines[1:])
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:   method,
		Path:     path,
		Protocol: protocol,
		Header:   header,
		Body:     body,
	}, nil
}

// Serialize renders the request back to wire bytes.
func (r *Request) Serialize() []byte {
	return serialize(r.Method+" "+r.Path+" "+r.Protocol, r.header(), r.Body)
}

func (r *Request) String() string {
	return string(r.Serialize())
}

func (r *Request) header() *Header {
	if r.Header == nil {
		r.Header = NewHeader()
	}
	return r.Header
}
