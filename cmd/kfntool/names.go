package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// displayName decodes a subfile name for printing. Names are stored as
// Windows-1252 bytes.
func displayName(name []byte) string {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(name)
	if err != nil {
		return fmt.Sprintf("%x", name)
	}
	return string(decoded)
}

// safeFileName turns a subfile name into a file name inside the extract directory.
func safeFileName(name []byte, index int) string {
	base := displayName(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, base)
	base = filepath.Base(strings.TrimSpace(base))
	if base == "" || base == "." || base == ".." {
		return fmt.Sprintf("subfile-%03d", index)
	}
	return base
}
