package compression

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Codec handles order data compression
type Codec struct {
	level int
}

// NewCodec creates a new codec with the default compression level
func NewCodec() *Codec {
	return &Codec{level: zlib.DefaultCompression}
}

// NewCodecWithLevel creates a new codec with the specified compression level
func NewCodecWithLevel(level int) *Codec {
	return &Codec{level: level}
}

// Compress deflates data into the zlib framing
func (c *Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates zlib framed data
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}

	return buf.Bytes(), nil
}
