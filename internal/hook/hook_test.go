package hook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/proxenetctl/internal/httpmsg"
)

type requestOnly struct{}

func (requestOnly) OnRequest(_ uint64, raw []byte) ([]byte, error) {
	req, err := httpmsg.ParseRequest(raw)
	if err != nil {
		return nil, err
	}
	req.Header.Del("Accept-Encoding")
	return req.Serialize(), nil
}

type both struct{ calls []uint64 }

func (b *both) OnRequest(id uint64, raw []byte) ([]byte, error) {
	b.calls = append(b.calls, id)
	return raw, nil
}

func (b *both) OnResponse(id uint64, raw []byte) ([]byte, error) {
	b.calls = append(b.calls, id)
	return append(raw, '!'), nil
}

func TestRequestHookRemovesHeader(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("1DeleteEncoding", requestOnly{}))

	out, err := registry.ApplyRequest(1, []byte("GET / HTTP/1.1\r\nHost: foo\r\nAccept-Encoding: gzip\r\n\r\n"))
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1\r\nHost: foo\r\n\r\n", string(out))
}

func TestMissingHookIsPassThrough(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("req", requestOnly{}))

	raw := []byte("HTTP/1.1 200 OK\r\n\r\nbody")
	out, err := registry.ApplyResponse(7, raw)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestApplyChainsInRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	first := &both{}
	require.NoError(t, registry.Register("b-second-name", first))
	require.NoError(t, registry.Register("a-first-name", Funcs{
		Response: func(_ uint64, raw []byte) ([]byte, error) { return append(raw, '?'), nil },
	}))

	out, err := registry.ApplyResponse(3, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "x!?", string(out))
	require.Equal(t, []uint64{3}, first.calls)
	require.Equal(t, []string{"a-first-name", "b-second-name"}, registry.Names())
}

func TestHookErrorPropagates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("strict", requestOnly{}))

	_, err := registry.ApplyRequest(1, []byte("garbage"))
	require.Error(t, err)
	require.ErrorIs(t, err, httpmsg.ErrMalformed)
	require.Contains(t, err.Error(), `plugin "strict"`)
}

func TestRegisterRejectsInvalidPlugins(t *testing.T) {
	registry := NewRegistry()
	require.ErrorIs(t, registry.Register("nothing", struct{}{}), ErrNoHooks)
	require.ErrorIs(t, registry.Register("empty funcs", Funcs{}), ErrNoHooks)
	require.ErrorIs(t, registry.Register("nil request func", RequestFunc(nil)), ErrNoHooks)
	require.ErrorIs(t, registry.Register("nil response func", ResponseFunc(nil)), ErrNoHooks)
	require.Empty(t, registry.Names())

	require.NoError(t, registry.Register("dup", requestOnly{}))
	require.ErrorIs(t, registry.Register("dup", requestOnly{}), ErrDuplicatePlugin)
}

func TestLookup(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("fn", RequestFunc(func(_ uint64, raw []byte) ([]byte, error) { return raw, nil })))

	p, err := registry.Lookup("fn")
	require.NoError(t, err)
	require.NotNil(t, p.Request)
	require.Nil(t, p.Response)

	_, err = registry.Lookup("missing")
	require.True(t, errors.Is(err, ErrPluginNotPresent))
}
