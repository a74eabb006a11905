package httpwire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeader(t *testing.T) {
	t.Run("the zero value is usable", func(t *testing.T) {
		var h Header
		if _, found := h.Get("Host"); found {
			t.Fatal("expected not found")
		}
		h.Set("Host", "www.example.com")
		if h.Value("Host") != "www.example.com" {
			t.Fatal("unexpected value")
		}
	})

	t.Run("a nil header is usable for reading", func(t *testing.T) {
		var h *Header
		if h.Len() != 0 || h.Names() != nil || h.Value("Host") != "" {
			t.Fatal("unexpected nil header behavior")
		}
		for range h.All() {
			t.Fatal("should not iterate")
		}
		h.Del("Host") // should not crash
	})

	t.Run("last write wins and keeps the position", func(t *testing.T) {
		h := NewHeader("Accept", "*/*", "User-Agent", "a", "Connection", "close")
		h.Set("User-Agent", "b")
		if diff := cmp.Diff([]string{"Accept", "User-Agent", "Connection"}, h.Names()); diff != "" {
			t.Fatal(diff)
		}
		if h.Value("User-Agent") != "b" {
			t.Fatal("unexpected value", h.Value("User-Agent"))
		}
	})

	t.Run("names are case sensitive when stored", func(t *testing.T) {
		h := NewHeader("content-length", "1", "Content-Length", "2")
		if h.Len() != 2 {
			t.Fatal("unexpected length", h.Len())
		}
		if h.Value("Content-Length") != "2" || h.Value("content-length") != "1" {
			t.Fatal("exact matches should win")
		}
	})

	t.Run("Get falls back to case-insensitive matching", func(t *testing.T) {
		h := NewHeader("transfer-encoding", "chunked")
		value, found := h.Get("Transfer-Encoding")
		if !found || value != "chunked" {
			t.Fatal("unexpected result", value, found)
		}
	})

	t.Run("Del removes all the case variants", func(t *testing.T) {
		h := NewHeader("A", "1", "content-length", "1", "B", "2", "Content-Length", "2")
		h.Del("CONTENT-LENGTH")
		if diff := cmp.Diff([]string{"A", "B"}, h.Names()); diff != "" {
			t.Fatal(diff)
		}
		if _, found := h.Get("Content-Length"); found {
			t.Fatal("expected not found")
		}
	})

	t.Run("All iterates in order and supports early exit", func(t *testing.T) {
		h := NewHeader("A", "1", "B", "2", "C", "3")
		var got []string
		for name, value := range h.All() {
			got = append(got, name+"="+value)
			if name == "B" {
				break
			}
		}
		if diff := cmp.Diff([]string{"A=1", "B=2"}, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Merge and Clone", func(t *testing.T) {
		base := NewHeader("User-Agent", "minihttps/0.1", "Connection", "close")
		extra := NewHeader("Connection", "keep-alive", "Accept", "*/*")
		merged := base.Clone()
		merged.Merge(extra)
		var got [][2]string
		for name, value := range merged.All() {
			got = append(got, [2]string{name, value})
		}
		expect := [][2]string{
			{"User-Agent", "minihttps/0.1"},
			{"Connection", "keep-alive"},
			{"Accept", "*/*"},
		}
		if diff := cmp.Diff(expect, got); diff != "" {
			t.Fatal(diff)
		}
		if base.Value("Connection") != "close" {
			t.Fatal("Clone did not copy")
		}
	})

	t.Run("NewHeader panics with odd arguments", func(t *testing.T) {
		var recovered any
		func() {
			defer func() {
				recovered = recover()
			}()
			NewHeader("A")
		}()
		if recovered == nil {
			t.Fatal("expected a panic")
		}
	})
}
