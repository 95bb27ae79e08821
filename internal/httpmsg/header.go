package httpmsg

// Header is an ordered header map. Keys are case-sensitive and unique; a later
// Set on an existing key replaces the value but keeps the original position.
type Header struct {
	keys   []string
	values map[string]string
}

// NewHeader returns an empty header map.
func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	_, ok := h.values[key]
	return ok
}

// Get returns the value stored for key, or "" when absent.
func (h *Header) Get(key string) string {
	return h.values[key]
}

// Set adds key or overwrites its value.
func (h *Header) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Del removes key. Removing an absent key is a no-op.
func (h *Header) Del(key string) {
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Keys returns header names in first-insertion order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

func (h *Header) Len() int {
	return len(h.keys)
}
