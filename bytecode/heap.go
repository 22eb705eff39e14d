package bytecode

import (
	"fmt"
	"strings"
)

// HeapRef locates a string inside a StringHeap.
type HeapRef struct {
	Offset int
	Length int
}

// StringHeap is a single buffer holding every string a stream references.
// Strings are deduplicated and a new string reuses the longest tail of the
// buffer that matches its head.
type StringHeap struct {
	buf   []byte
	cache map[string]HeapRef
}

func NewStringHeap() *StringHeap {
	return &StringHeap{cache: make(map[string]HeapRef)}
}

// heapFromBytes wraps a loaded heap buffer.
func heapFromBytes(b []byte) *StringHeap {
	return &StringHeap{buf: b, cache: make(map[string]HeapRef)}
}

// GetOrAdd returns the location of s, appending as little of it as
// possible.
func (h *StringHeap) GetOrAdd(s string) HeapRef {
	if ref, ok := h.cache[s]; ok {
		return ref
	}
	if i := strings.Index(string(h.buf), s); i >= 0 {
		ref := HeapRef{Offset: i, Length: len(s)}
		h.cache[s] = ref
		return ref
	}
	k := overlap(h.buf, s)
	ref := HeapRef{Offset: len(h.buf) - k, Length: len(s)}
	h.buf = append(h.buf, s[k:]...)
	h.cache[s] = ref
	return ref
}

// overlap returns the largest k such that the last k bytes of buf equal the
// first k bytes of s.
func overlap(buf []byte, s string) int {
	k := min(len(buf), len(s))
	for ; k > 0; k-- {
		if string(buf[len(buf)-k:]) == s[:k] {
			return k
		}
	}
	return 0
}

// GetString returns the string at ref.
func (h *StringHeap) GetString(ref HeapRef) (string, error) {
	if ref.Offset < 0 || ref.Length < 0 || ref.Offset+ref.Length > len(h.buf) {
		return "", fmt.Errorf("%w: heap ref %d+%d outside %d bytes", ErrCorrupt, ref.Offset, ref.Length, len(h.buf))
	}
	return string(h.buf[ref.Offset : ref.Offset+ref.Length]), nil
}

// Bytes returns the heap buffer. It must not be modified.
func (h *StringHeap) Bytes() []byte { return h.buf }

func (h *StringHeap) Len() int { return len(h.buf) }
