// Package kfn provides types and functions for working with KFN karaoke containers.
//
// A container is a small header table followed by an index of packed
// subfiles (song script, audio, images, fonts, video, visualizer presets and
// CDG graphics) and their concatenated payloads. Payloads may be AES
// encrypted with a key kept in the FLID header.
package kfn

import (
	"bytes"
	"fmt"
)

// Magic bytes identifying a KFN container.
var Magic = [4]byte{'K', 'F', 'N', 'B'}

// Tag identifies a header entry.
type Tag [4]byte

// Reserved header tags.
var (
	TagKey    = Tag{'F', 'L', 'I', 'D'} // 16-byte AES key, all zero when unencrypted
	TagRights = Tag{'R', 'G', 'H', 'T'} // publishing rights flag
	TagEnd    = Tag{'E', 'N', 'D', 'H'} // terminator, never stored
)

// KeySize is the length of the FLID key.
const KeySize = 16

// endValue is written as the terminator's value.
const endValue = 0xFFFFFFFF

// String returns the tag as text.
func (t Tag) String() string {
	return string(t[:])
}

// ParseTag converts a 4-character string to a Tag.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, fmt.Errorf("tag %q: must be %d bytes", s, len(t))
	}
	copy(t[:], s)
	return t, nil
}

// ValueKind discriminates header values. The numeric values are the wire flags.
type ValueKind uint8

const (
	KindUint32 ValueKind = 1
	KindBytes  ValueKind = 2
)

func (k ValueKind) String() string {
	switch k {
	case KindUint32:
		return "uint32"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a header value: either a 32-bit integer or a raw byte buffer.
type Value struct {
	Kind  ValueKind
	Uint  uint32
	Bytes []byte
}

// Uint32Value returns an integer header value.
func Uint32Value(v uint32) Value {
	return Value{Kind: KindUint32, Uint: v}
}

// BytesValue returns a byte buffer header value.
func BytesValue(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: b}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindUint32:
		return v.Uint == o.Uint
	case KindBytes:
		return bytes.Equal(v.Bytes, o.Bytes)
	default:
		return true
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case KindUint32:
		return fmt.Sprintf("%d", v.Uint)
	case KindBytes:
		if isPrintable(v.Bytes) {
			return fmt.Sprintf("%q", v.Bytes)
		}
		return fmt.Sprintf("%x", v.Bytes)
	default:
		return v.Kind.String()
	}
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// HeaderEntry is a single tag/value pair.
type HeaderEntry struct {
	Tag   Tag
	Value Value
}

// HeaderTable is an insertion-ordered tag/value table.
// Headers are re-encoded in the order they were read.
type HeaderTable struct {
	entries []HeaderEntry
}

// Len returns the number of entries.
func (h *HeaderTable) Len() int {
	return len(h.entries)
}

// Entries returns the entries in table order.
// The returned slice must not be modified.
func (h *HeaderTable) Entries() []HeaderEntry {
	return h.entries
}

func (h *HeaderTable) index(tag Tag) int {
	for i := range h.entries {
		if h.entries[i].Tag == tag {
			return i
		}
	}
	return -1
}

// Get returns the value stored under tag.
func (h *HeaderTable) Get(tag Tag) (Value, bool) {
	if i := h.index(tag); i >= 0 {
		return h.entries[i].Value, true
	}
	return Value{}, false
}

// Has reports whether tag is present.
func (h *HeaderTable) Has(tag Tag) bool {
	return h.index(tag) >= 0
}

// Set stores v under tag. An existing entry keeps its position.
func (h *HeaderTable) Set(tag Tag, v Value) {
	if i := h.index(tag); i >= 0 {
		h.entries[i].Value = v
		return
	}
	h.entries = append(h.entries, HeaderEntry{Tag: tag, Value: v})
}

// Equal reports whether both tables hold the same entries in the same order.
func (h *HeaderTable) Equal(o *HeaderTable) bool {
	if len(h.entries) != len(o.entries) {
		return false
	}
	for i := range h.entries {
		if h.entries[i].Tag != o.entries[i].Tag || !h.entries[i].Value.Equal(o.entries[i].Value) {
			return false
		}
	}
	return true
}
