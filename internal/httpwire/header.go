package httpwire

import (
	"iter"
	"strings"
)

// Header is a collection of HTTP headers where each name maps to a
// single value. Names are stored as given. Setting an existing name
// replaces its value and keeps its position. Iteration follows the
// order in which names were first set. The zero value is ready to use.
type Header struct {
	names  []string
	values map[string]string
}

// NewHeader creates a Header from name, value pairs. It panics if
// the number of arguments is odd.
func NewHeader(kv ...string) *Header {
	if len(kv)%2 != 0 {
		panic("httpwire: NewHeader: odd number of arguments")
	}
	h := &Header{}
	for idx := 0; idx < len(kv); idx += 2 {
		h.Set(kv[idx], kv[idx+1])
	}
	return h
}

// Set sets the value of name.
func (h *Header) Set(name, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, found := h.values[name]; !found {
		h.names = append(h.names, name)
	}
	h.values[name] = value
}

// Get returns the value of name. When there is no exact match, Get
// returns the value of the first name that matches ignoring case.
func (h *Header) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	if value, found := h.values[name]; found {
		return value, true
	}
	for _, key := range h.names {
		if strings.EqualFold(key, name) {
			return h.values[key], true
		}
	}
	return "", false
}

// Value is like Get but returns only the value.
func (h *Header) Value(name string) string {
	value, _ := h.Get(name)
	return value
}

// Del removes every name matching name ignoring case.
func (h *Header) Del(name string) {
	if h == nil {
		return
	}
	names := h.names[:0]
	for _, key := range h.names {
		if strings.EqualFold(key, name) {
			delete(h.values, key)
			continue
		}
		names = append(names, key)
	}
	h.names = names
}

// Len returns the number of names.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Names returns a copy of the names in iteration order.
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}
	return append([]string{}, h.names...)
}

// All returns an iterator over names and values in iteration order.
func (h *Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		for _, name := range h.names {
			if !yield(name, h.values[name]) {
				return
			}
		}
	}
}

// Merge sets every name of other into h. Values in other win.
func (h *Header) Merge(other *Header) {
	for name, value := range other.All() {
		h.Set(name, value)
	}
}

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	out := &Header{}
	out.Merge(h)
	return out
}
