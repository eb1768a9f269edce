// Package archive stores zstd-compressed snapshots of KFN containers.
//
// A snapshot is written before an unlock overwrites its input so the
// original bytes can be restored later.
package archive

import (
	"encoding/binary"
	"fmt"
)

// Magic bytes identifying a snapshot header.
var Magic = [4]byte{'K', 'F', 'N', 'Z'}

// HeaderSize is the fixed binary size of a snapshot header.
const HeaderSize = 28 // 4 + 4 + 8 + 8 + 4 bytes

// headerLength is the number of header bytes following Magic and HeaderLength.
const headerLength = HeaderSize - 8

// Header describes a compressed snapshot.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // Original size
	CompressedLength uint64 // Size of the zstd frame
	Checksum         uint32 // CRC-32 (IEEE) of the original bytes
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.HeaderLength != headerLength {
		return fmt.Errorf("invalid header length: expected %d, got %d", headerLength, h.HeaderLength)
	}
	if h.CompressedLength == 0 {
		return fmt.Errorf("compressed size is zero")
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to buf, which must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
	binary.LittleEndian.PutUint32(buf[24:28], h.Checksum)
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	copy(h.Magic[:], buf[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(buf[4:8])
	h.Length = binary.LittleEndian.Uint64(buf[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(buf[16:24])
	h.Checksum = binary.LittleEndian.Uint32(buf[24:28])
}

// NewHeader creates a header for the given original and compressed sizes.
func NewHeader(length, compressedLength uint64, checksum uint32) *Header {
	return &Header{
		Magic:            Magic,
		HeaderLength:     headerLength,
		Length:           length,
		CompressedLength: compressedLength,
		Checksum:         checksum,
	}
}
