package kfn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MarshalBinary encodes the container to its binary image.
// Payload offsets are recomputed from the current buffers, in subfile order.
func (c *Container) MarshalBinary() ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, c.encodedSize()))
	var word [4]byte
	putWord := func(v uint32) {
		binary.LittleEndian.PutUint32(word[:], v)
		buf.Write(word[:])
	}

	buf.Write(Magic[:])

	for _, e := range c.Headers.Entries() {
		buf.Write(e.Tag[:])
		buf.WriteByte(byte(e.Value.Kind))
		switch e.Value.Kind {
		case KindUint32:
			putWord(e.Value.Uint)
		case KindBytes:
			putWord(uint32(len(e.Value.Bytes)))
			buf.Write(e.Value.Bytes)
		}
	}
	buf.Write(TagEnd[:])
	buf.WriteByte(byte(KindUint32))
	putWord(endValue)

	putWord(uint32(len(c.Subfiles)))
	var offset uint32
	for _, sf := range c.Subfiles {
		putWord(uint32(len(sf.Name)))
		buf.Write(sf.Name)
		putWord(uint32(sf.Type))
		putWord(sf.Length)
		putWord(offset)
		putWord(uint32(len(sf.Data)))
		if sf.Encrypted {
			putWord(1)
		} else {
			putWord(0)
		}
		offset += uint32(len(sf.Data))
	}

	for _, sf := range c.Subfiles {
		buf.Write(sf.Data)
	}

	return buf.Bytes(), nil
}

// validate checks that every field fits its wire representation.
func (c *Container) validate() error {
	for _, e := range c.Headers.Entries() {
		if e.Tag == TagEnd {
			return fmt.Errorf("%w: header table contains terminator tag", ErrInvalidContainer)
		}
		switch e.Value.Kind {
		case KindUint32:
		case KindBytes:
			if uint64(len(e.Value.Bytes)) > math.MaxUint32 {
				return fmt.Errorf("%w: header %s value too long", ErrInvalidContainer, e.Tag)
			}
		default:
			return fmt.Errorf("%w: header %s has %s value", ErrInvalidContainer, e.Tag, e.Value.Kind)
		}
	}

	if uint64(len(c.Subfiles)) > math.MaxUint32 {
		return fmt.Errorf("%w: too many subfiles", ErrInvalidContainer)
	}

	var total uint64
	seen := make(map[string]struct{}, len(c.Subfiles))
	for _, sf := range c.Subfiles {
		if _, err := ParseSubfileType(uint32(sf.Type)); err != nil {
			return fmt.Errorf("%w: subfile %q: %v", ErrInvalidContainer, sf.Name, err)
		}
		if _, dup := seen[string(sf.Name)]; dup {
			return fmt.Errorf("%w: %w: %q", ErrInvalidContainer, ErrDuplicateSubfile, sf.Name)
		}
		seen[string(sf.Name)] = struct{}{}
		if uint64(len(sf.Name)) > math.MaxUint32 {
			return fmt.Errorf("%w: subfile name too long", ErrInvalidContainer)
		}
		total += uint64(len(sf.Data))
		if total > math.MaxUint32 {
			return fmt.Errorf("%w: payloads exceed 4 GiB", ErrInvalidContainer)
		}
	}
	return nil
}

func (c *Container) encodedSize() int {
	size := len(Magic)
	for _, e := range c.Headers.Entries() {
		size += 4 + 1 + 4 + len(e.Value.Bytes)
	}
	size += 4 + 1 + 4 // terminator
	size += 4         // subfile count
	for _, sf := range c.Subfiles {
		size += 4 + len(sf.Name) + indexEntrySize + len(sf.Data)
	}
	return size
}

// Encode writes the container to w. Nothing is written if encoding fails.
func Encode(w io.Writer, c *Container) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write container: %w", err)
	}
	return nil
}
