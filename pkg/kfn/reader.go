package kfn

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// indexEntrySize is the fixed part of a subfile index entry following its name.
const indexEntrySize = 20 // type, length, offset, payload length, encrypted flag

// cursor reads little-endian fields from an in-memory container image.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) fail(err error) error {
	return &FormatError{Offset: int64(c.pos), Err: err}
}

func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || n > len(c.data)-c.pos {
		return nil, c.fail(fmt.Errorf("%w: need %d bytes, %d left", ErrTruncated, n, len(c.data)-c.pos))
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readUint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// indexEntry is a subfile index record as stored on disk.
type indexEntry struct {
	name          []byte
	ftype         SubfileType
	length        uint32
	offset        uint32
	payloadLength uint32
	encrypted     bool
}

// UnmarshalBinary decodes a container from its binary image.
// Payload buffers are copied, so data may be reused by the caller.
func (c *Container) UnmarshalBinary(data []byte) error {
	r := &cursor{data: data}

	magic, err := r.next(len(Magic))
	if err != nil {
		return err
	}
	if [4]byte(magic) != Magic {
		return &FormatError{Offset: 0, Err: fmt.Errorf("%w: got %q", ErrBadMagic, magic)}
	}

	var headers HeaderTable
	if err := readHeaders(r, &headers); err != nil {
		return err
	}

	entries, err := readIndex(r)
	if err != nil {
		return err
	}

	subfiles, err := readBodies(r, entries)
	if err != nil {
		return err
	}

	c.Headers = headers
	c.Subfiles = subfiles
	return nil
}

func readHeaders(r *cursor, headers *HeaderTable) error {
	for {
		start := r.pos
		raw, err := r.next(4)
		if err != nil {
			return err
		}
		tag := Tag(raw)

		flag, err := r.readByte()
		if err != nil {
			return err
		}

		var v Value
		switch ValueKind(flag) {
		case KindUint32:
			n, err := r.readUint32()
			if err != nil {
				return err
			}
			v = Uint32Value(n)
		case KindBytes:
			n, err := r.readUint32()
			if err != nil {
				return err
			}
			b, err := r.next(int(n))
			if err != nil {
				return err
			}
			v = BytesValue(append([]byte(nil), b...))
		default:
			return &FormatError{Offset: int64(start), Err: fmt.Errorf("%w %d for header %s", ErrUnknownHeaderFlag, flag, tag)}
		}

		if tag == TagEnd {
			if v.Kind != KindUint32 {
				return &FormatError{Offset: int64(start), Err: fmt.Errorf("%w: flag %d", ErrBadTerminator, flag)}
			}
			return nil
		}
		headers.Set(tag, v)
	}
}

func readIndex(r *cursor) ([]indexEntry, error) {
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}

	// Each entry needs at least its name length and fixed fields.
	if uint64(count)*(4+indexEntrySize) > uint64(len(r.data)-r.pos) {
		return nil, r.fail(fmt.Errorf("%w: %d index entries do not fit", ErrTruncated, count))
	}

	entries := make([]indexEntry, 0, count)
	seen := make(map[string]struct{}, count)
	for i := uint32(0); i < count; i++ {
		start := r.pos
		nameLen, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		name, err := r.next(int(nameLen))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[string(name)]; dup {
			return nil, &FormatError{Offset: int64(start), Err: fmt.Errorf("%w: %q", ErrDuplicateSubfile, name)}
		}
		seen[string(name)] = struct{}{}

		fields, err := r.next(indexEntrySize)
		if err != nil {
			return nil, err
		}
		ftype, err := ParseSubfileType(binary.LittleEndian.Uint32(fields[0:4]))
		if err != nil {
			return nil, &FormatError{Offset: int64(start), Err: err}
		}

		entries = append(entries, indexEntry{
			name:          append([]byte(nil), name...),
			ftype:         ftype,
			length:        binary.LittleEndian.Uint32(fields[4:8]),
			offset:        binary.LittleEndian.Uint32(fields[8:12]),
			payloadLength: binary.LittleEndian.Uint32(fields[12:16]),
			encrypted:     binary.LittleEndian.Uint32(fields[16:20]) != 0,
		})
	}
	return entries, nil
}

func readBodies(r *cursor, entries []indexEntry) ([]*Subfile, error) {
	base := uint64(r.pos)
	subfiles := make([]*Subfile, 0, len(entries))
	for _, e := range entries {
		start := base + uint64(e.offset)
		end := start + uint64(e.payloadLength)
		if end > uint64(len(r.data)) {
			return nil, &FormatError{
				Offset: int64(start),
				Err:    fmt.Errorf("%w: payload of %q needs bytes %d-%d, have %d", ErrTruncated, e.name, start, end, len(r.data)),
			}
		}

		subfiles = append(subfiles, &Subfile{
			Name:      e.name,
			Type:      e.ftype,
			Data:      append([]byte(nil), r.data[start:end]...),
			Length:    e.length,
			Encrypted: e.encrypted,
		})
	}
	return subfiles, nil
}

// Decode reads an entire container from r.
func Decode(r io.Reader) (*Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}

	c := &Container{}
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadFile reads and parses a container from a file.
func ReadFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}

	c := &Container{}
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}
