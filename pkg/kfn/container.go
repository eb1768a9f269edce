package kfn

import (
	"bytes"
	"fmt"
)

// SubfileType identifies the kind of asset packed in a subfile.
type SubfileType uint32

const (
	TypeSong     SubfileType = 1 // song script (Windows-1252 sectioned text)
	TypeAudio    SubfileType = 2
	TypeImage    SubfileType = 3
	TypeFont     SubfileType = 4
	TypeVideo    SubfileType = 5
	TypeMilkdrop SubfileType = 6
	TypeCDG      SubfileType = 7
)

var subfileTypeNames = map[SubfileType]string{
	TypeSong:     "SONG",
	TypeAudio:    "AUDIO",
	TypeImage:    "IMAGE",
	TypeFont:     "FONT",
	TypeVideo:    "VIDEO",
	TypeMilkdrop: "MILKDROP",
	TypeCDG:      "CDG",
}

// ParseSubfileType converts a wire type code to a SubfileType.
func ParseSubfileType(code uint32) (SubfileType, error) {
	t := SubfileType(code)
	if _, ok := subfileTypeNames[t]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSubfileType, code)
	}
	return t, nil
}

func (t SubfileType) String() string {
	if name, ok := subfileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%d)", uint32(t))
}

// Subfile is one packed asset.
type Subfile struct {
	Name      []byte      // Opaque lookup key, not necessarily valid text
	Type      SubfileType // Asset type
	Data      []byte      // Payload, ciphertext when Encrypted
	Length    uint32      // Plaintext length
	Encrypted bool
}

// Equal reports whether two subfiles carry the same metadata and payload.
func (s *Subfile) Equal(o *Subfile) bool {
	return bytes.Equal(s.Name, o.Name) &&
		s.Type == o.Type &&
		s.Length == o.Length &&
		s.Encrypted == o.Encrypted &&
		bytes.Equal(s.Data, o.Data)
}

// Container is a decoded KFN file.
type Container struct {
	Headers  HeaderTable
	Subfiles []*Subfile
}

// Key returns the FLID key, or nil when the header is absent or not a byte buffer.
func (c *Container) Key() []byte {
	v, ok := c.Headers.Get(TagKey)
	if !ok || v.Kind != KindBytes {
		return nil
	}
	return v.Bytes
}

// HasZeroKey reports whether FLID holds the all-zero "no encryption" key.
func (c *Container) HasZeroKey() bool {
	key := c.Key()
	if len(key) != KeySize {
		return false
	}
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}

// Subfile returns the subfile with the given name, or nil.
func (c *Container) Subfile(name []byte) *Subfile {
	for _, sf := range c.Subfiles {
		if bytes.Equal(sf.Name, name) {
			return sf
		}
	}
	return nil
}

// SubfileCount returns the number of subfiles.
func (c *Container) SubfileCount() int {
	return len(c.Subfiles)
}

// PayloadSize returns the total size of all payload buffers.
func (c *Container) PayloadSize() int {
	total := 0
	for _, sf := range c.Subfiles {
		total += len(sf.Data)
	}
	return total
}

// Equal reports whether both containers hold equal headers and subfiles.
func (c *Container) Equal(o *Container) bool {
	if !c.Headers.Equal(&o.Headers) || len(c.Subfiles) != len(o.Subfiles) {
		return false
	}
	for i := range c.Subfiles {
		if !c.Subfiles[i].Equal(o.Subfiles[i]) {
			return false
		}
	}
	return true
}
