// Package stripencoding asks origins for identity-encoded bodies and brands
// responses with the proxy's server name.
package stripencoding

import "github.com/rbright/proxenetctl/internal/httpmsg"

const ServerName = "pr0x3n7"

type Plugin struct{}

func (Plugin) OnRequest(_ uint64, raw []byte) ([]byte, error) {
	req, err := httpmsg.ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	if !req.Header.Has("Accept-Encoding") {
		return raw, nil
	}
	req.Header.Del("Accept-Encoding")
	return req.Serialize(), nil
}

func (Plugin) OnResponse(_ uint64, raw []byte) ([]byte, error) {
	resp, err := httpmsg.ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	resp.Header.Set("Server", ServerName)
	return resp.Serialize(), nil
}
