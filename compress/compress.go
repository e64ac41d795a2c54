// Package compress provides the message body codecs selected by the
// compression bits of a message sys flag.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Type int32

const (
	LZ4  Type = 1
	ZSTD Type = 2
	ZLIB Type = 3
)

func (t Type) String() string {
	switch t {
	case LZ4:
		return "LZ4"
	case ZSTD:
		return "ZSTD"
	case ZLIB:
		return "ZLIB"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
	}
}

// DefaultMaxDecompressedSize bounds the output of the Default codecs.
const DefaultMaxDecompressedSize = 64 << 20

var (
	ErrUnsupportedType = errors.New("unsupported compression type")
	ErrTooLarge        = errors.New("decompressed size exceeds limit")
)

type Compressor interface {
	Compress(src []byte, level int) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// Factory resolves the codec for a compression type.
type Factory interface {
	Compressor(t Type) (Compressor, error)
}

type factory struct {
	m map[Type]Compressor
}

// Default knows LZ4, ZSTD and ZLIB.
var Default = NewFactory(DefaultMaxDecompressedSize)

// NewFactory returns LZ4, ZSTD and ZLIB codecs whose Decompress fails with
// ErrTooLarge once the output grows past maxSize bytes.
func NewFactory(maxSize int64) Factory {
	return &factory{
		m: map[Type]Compressor{
			LZ4:  lz4Compressor{maxSize: maxSize},
			ZSTD: newZstdCompressor(maxSize),
			ZLIB: zlibCompressor{maxSize: maxSize},
		},
	}
}

func (f *factory) Compressor(t Type) (Compressor, error) {
	c, ok := f.m[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return c, nil
}

// readLimited reads r to the end, failing once more than maxSize bytes show up.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > maxSize {
		return nil, fmt.Errorf("%w: %d", ErrTooLarge, maxSize)
	}
	return out, nil
}

type zlibCompressor struct {
	maxSize int64
}

func (zlibCompressor) Compress(src []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib: new writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("zlib: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib: close: %w", err)
	}
	return buf.Bytes(), nil
}

func (c zlibCompressor) Decompress(src []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("zlib: new reader: %w", err)
	}
	defer r.Close()

	out, err := readLimited(r, c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("zlib: read: %w", err)
	}
	return out, nil
}

type zstdCompressor struct {
	decoder func() (*zstd.Decoder, error)
}

func newZstdCompressor(maxSize int64) zstdCompressor {
	return zstdCompressor{
		decoder: sync.OnceValues(func() (*zstd.Decoder, error) {
			return zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(0),
				zstd.WithDecoderMaxMemory(uint64(maxSize)),
			)
		}),
	}
}

func (zstdCompressor) Compress(src []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("zstd: new writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil), nil
}

func (c zstdCompressor) Decompress(src []byte) ([]byte, error) {
	dec, err := c.decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd: new reader: %w", err)
	}
	out, err := dec.DecodeAll(src, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		return nil, fmt.Errorf("zstd: %w: %w", ErrTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd: decode: %w", err)
	}
	return out, nil
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

type lz4Compressor struct {
	maxSize int64
}

func (lz4Compressor) Compress(src []byte, level int) ([]byte, error) {
	level = min(max(level, 0), len(lz4Levels)-1)

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
		return nil, fmt.Errorf("lz4: apply level: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("lz4: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4: close: %w", err)
	}
	return buf.Bytes(), nil
}

func (c lz4Compressor) Decompress(src []byte) ([]byte, error) {
	out, err := readLimited(lz4.NewReader(bytes.NewReader(src)), c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("lz4: read: %w", err)
	}
	return out, nil
}
