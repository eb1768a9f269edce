package archive

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/DataDog/zstd"
)

const (
	// DefaultCompressionLevel is the default compression level for snapshots.
	DefaultCompressionLevel = zstd.BestSpeed
)

type encodeConfig struct {
	level int
}

// Option configures Encode.
type Option func(*encodeConfig)

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) Option {
	return func(c *encodeConfig) {
		c.level = level
	}
}

// Encode compresses data and writes it as a snapshot to dst.
func Encode(dst io.Writer, data []byte, opts ...Option) error {
	cfg := &encodeConfig{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(cfg)
	}

	compressed, err := zstd.CompressLevel(nil, data, cfg.level)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	header := NewHeader(uint64(len(data)), uint64(len(compressed)), crc32.ChecksumIEEE(data))
	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	if _, err := dst.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := dst.Write(compressed); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// Decode reads a snapshot from src and returns the original bytes.
func Decode(src io.Reader) ([]byte, error) {
	var headerBuf [HeaderSize]byte
	if _, err := io.ReadFull(src, headerBuf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := &Header{}
	if err := header.UnmarshalBinary(headerBuf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	compressed, err := io.ReadAll(io.LimitReader(src, int64(header.CompressedLength)))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if uint64(len(compressed)) != header.CompressedLength {
		return nil, fmt.Errorf("incomplete read: expected %d, got %d", header.CompressedLength, len(compressed))
	}

	data, err := zstd.Decompress(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if uint64(len(data)) != header.Length {
		return nil, fmt.Errorf("size mismatch: expected %d, got %d", header.Length, len(data))
	}
	if sum := crc32.ChecksumIEEE(data); sum != header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %08x, got %08x", header.Checksum, sum)
	}

	return data, nil
}

// ReadFile reads a snapshot file and returns the original bytes.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// WriteFile writes data to path as a snapshot.
func WriteFile(path string, data []byte, opts ...Option) error {
	var buf bytes.Buffer
	if err := Encode(&buf, data, opts...); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return f.Close()
}
