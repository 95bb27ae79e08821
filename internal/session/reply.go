package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ReplyKind tells how a frame payload was decoded.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyJSON
)

func (k ReplyKind) String() string {
	if k == ReplyJSON {
		return "json"
	}
	return "text"
}

// Reply is one decoded frame payload. Payloads that are not valid JSON fall
// back to ReplyText with the raw text kept intact.
type Reply struct {
	Kind ReplyKind
	Raw  string
	JSON gjson.Result
}

// Width 0 keeps arrays expanded one element per line.
var renderOptions = &pretty.Options{Indent: "    ", SortKeys: true}

// DecodeReply classifies a payload as JSON or raw text.
func DecodeReply(payload []byte) Reply {
	raw := string(payload)
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && gjson.Valid(trimmed) {
		return Reply{Kind: ReplyJSON, Raw: raw, JSON: gjson.Parse(trimmed)}
	}
	return Reply{Kind: ReplyText, Raw: raw}
}

// Render returns indented JSON with sorted keys, or the raw text.
func (r Reply) Render() string {
	if r.Kind == ReplyJSON {
		return string(pretty.PrettyOptions([]byte(r.JSON.Raw), renderOptions))
	}
	return r.Raw
}

// Vocabulary is the sorted set of command names the daemon advertised.
type Vocabulary []string

func (v Vocabulary) Contains(name string) bool {
	i := sort.SearchStrings(v, name)
	return i < len(v) && v[i] == name
}

var errNoCommandList = errors.New("help reply has no command list")

// ParseVocabulary reads the sub-keys of the reply's single top-level object.
func ParseVocabulary(reply Reply) (Vocabulary, error) {
	if reply.Kind != ReplyJSON || !reply.JSON.IsObject() {
		return nil, errNoCommandList
	}

	var (
		topLevel int
		list     gjson.Result
		listName string
	)
	reply.JSON.ForEach(func(key, value gjson.Result) bool {
		topLevel++
		listName = key.String()
		list = value
		return true
	})
	if topLevel != 1 {
		return nil, fmt.Errorf("%w: expected one top-level key, got %d", errNoCommandList, topLevel)
	}
	if !list.IsObject() {
		return nil, fmt.Errorf("%w: %q is not an object", errNoCommandList, listName)
	}

	var names Vocabulary
	list.ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	sort.Strings(names)
	return names, nil
}
