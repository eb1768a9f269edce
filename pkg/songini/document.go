// Package songini reads and rewrites the sectioned key=value song script
// stored in SONG subfiles.
//
// Song scripts are Windows-1252 text:
//
//	[General]
//	Title=...
//	[Eff1]
//	ID=51
//
// The parser keeps every raw line, so sections that survive a rewrite are
// rendered byte-for-byte as they were read.
package songini

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ErrEncoding is returned when text cannot be converted to or from Windows-1252.
var ErrEncoding = errors.New("windows-1252 conversion failed")

// Section is a named block of key/value lines.
type Section struct {
	Name string

	lines    []string // raw lines including the header line and line endings
	keys     []keyValue
	defaults []*Section
}

// DefaultSection names the section whose keys every other section inherits.
const DefaultSection = "DEFAULT"

type keyValue struct {
	key   string
	value string
}

// Get returns the value of key, compared case-insensitively.
// When a key repeats, the last assignment wins. Keys missing from the
// section are looked up in the document's DEFAULT section.
func (s *Section) Get(key string) (string, bool) {
	if v, ok := s.get(key); ok {
		return v, true
	}
	for i := len(s.defaults) - 1; i >= 0; i-- {
		if v, ok := s.defaults[i].get(key); ok {
			return v, true
		}
	}
	return "", false
}

func (s *Section) get(key string) (string, bool) {
	for i := len(s.keys) - 1; i >= 0; i-- {
		if strings.EqualFold(s.keys[i].key, key) {
			return s.keys[i].value, true
		}
	}
	return "", false
}

// Keys returns the section's keys in document order.
func (s *Section) Keys() []string {
	keys := make([]string, len(s.keys))
	for i, kv := range s.keys {
		keys[i] = kv.key
	}
	return keys
}

// Document is a parsed song script.
type Document struct {
	preamble []string
	Sections []*Section
}

// Section returns the first section with the given name, compared case-insensitively.
func (d *Document) Section(name string) *Section {
	for _, s := range d.Sections {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}

// Decode parses Windows-1252 encoded data.
// Bytes that Windows-1252 leaves undefined are rejected.
func Decode(data []byte) (*Document, error) {
	for i, b := range data {
		if undefined1252(b) {
			return nil, fmt.Errorf("%w: undefined byte 0x%02x at offset %d", ErrEncoding, b, i)
		}
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return Parse(string(text)), nil
}

// Parse parses an already decoded document.
func Parse(text string) *Document {
	doc := &Document{}
	var cur *Section
	keyIndent := -1 // indent of the key line a continuation extends, -1 for none

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)

		if name, ok := sectionHeader(trimmed); ok {
			cur = &Section{Name: name}
			doc.Sections = append(doc.Sections, cur)
			cur.lines = append(cur.lines, line)
			keyIndent = -1
			continue
		}

		if cur == nil {
			doc.preamble = append(doc.preamble, line)
			continue
		}
		cur.lines = append(cur.lines, line)

		if trimmed == "" || trimmed[0] == ';' || trimmed[0] == '#' {
			continue
		}

		// Lines indented deeper than their key line continue its value.
		indent := indentWidth(line)
		if keyIndent >= 0 && indent > keyIndent && len(cur.keys) > 0 {
			last := &cur.keys[len(cur.keys)-1]
			last.value += "\n" + trimmed
			continue
		}

		if i := strings.IndexAny(trimmed, "=:"); i >= 0 {
			cur.keys = append(cur.keys, keyValue{
				key:   strings.TrimSpace(trimmed[:i]),
				value: strings.TrimSpace(trimmed[i+1:]),
			})
			keyIndent = indent
		}
	}

	var defaults []*Section
	for _, s := range doc.Sections {
		if s.Name == DefaultSection {
			defaults = append(defaults, s)
		}
	}
	for _, s := range doc.Sections {
		if s.Name != DefaultSection {
			s.defaults = defaults
		}
	}
	return doc
}

// String renders the document as text.
func (d *Document) String() string {
	var b strings.Builder
	for _, line := range d.preamble {
		b.WriteString(line)
	}
	for _, s := range d.Sections {
		for _, line := range s.lines {
			b.WriteString(line)
		}
	}
	return b.String()
}

// Bytes renders the document as Windows-1252.
func (d *Document) Bytes() ([]byte, error) {
	out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(d.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return out, nil
}

// RemoveFunc deletes every section for which remove returns true, visiting
// sections in document order. It returns the names of removed sections.
// The first error returned by remove stops the walk and leaves the document unchanged.
func (d *Document) RemoveFunc(remove func(*Section) (bool, error)) ([]string, error) {
	kept := make([]*Section, 0, len(d.Sections))
	var removed []string
	for _, s := range d.Sections {
		drop, err := remove(s)
		if err != nil {
			return nil, err
		}
		if drop {
			removed = append(removed, s.Name)
			continue
		}
		kept = append(kept, s)
	}
	d.Sections = kept
	return removed, nil
}

// sectionHeader matches "[name]" lines. Text after the last bracket is ignored.
func sectionHeader(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "[") {
		return "", false
	}
	end := strings.LastIndexByte(trimmed, ']')
	if end < 2 {
		return "", false
	}
	return trimmed[1:end], true
}

func undefined1252(b byte) bool {
	switch b {
	case 0x81, 0x8d, 0x8f, 0x90, 0x9d:
		return true
	}
	return false
}

// indentWidth counts the leading whitespace characters of line.
func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t\v\f"))
}

// splitLines splits text after each newline, keeping the terminators.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
