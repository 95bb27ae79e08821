// Package tagrequest marks every request that crossed the proxy.
package tagrequest

import "github.com/rbright/proxenetctl/internal/httpmsg"

const (
	HeaderName  = "X-Intercepted-By"
	HeaderValue = "proxenet"
)

type Plugin struct{}

func (Plugin) OnRequest(_ uint64, raw []byte) ([]byte, error) {
	req, err := httpmsg.ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderName, HeaderValue)
	return req.Serialize(), nil
}
