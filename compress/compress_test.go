package compress_test

import (
	"bytes"
	"testing"

	"github.com/fujin-io/rocketmq-go/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("reply message payload "), 64)

	for _, typ := range []compress.Type{compress.LZ4, compress.ZSTD, compress.ZLIB} {
		t.Run(typ.String(), func(t *testing.T) {
			c, err := compress.Default.Compressor(typ)
			require.NoError(t, err)

			packed, err := c.Compress(payload, 5)
			require.NoError(t, err)
			assert.Less(t, len(packed), len(payload))

			unpacked, err := c.Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, payload, unpacked)
		})
	}
}

func TestDecompressCorrupted(t *testing.T) {
	garbage := []byte("definitely not compressed")

	for _, typ := range []compress.Type{compress.LZ4, compress.ZSTD, compress.ZLIB} {
		t.Run(typ.String(), func(t *testing.T) {
			c, err := compress.Default.Compressor(typ)
			require.NoError(t, err)

			_, err = c.Decompress(garbage)
			assert.Error(t, err)
		})
	}
}

func TestUnsupportedType(t *testing.T) {
	_, err := compress.Default.Compressor(compress.Type(6))
	assert.ErrorIs(t, err, compress.ErrUnsupportedType)
	assert.Equal(t, "UNKNOWN(6)", compress.Type(6).String())
}

func TestDecompressLimit(t *testing.T) {
	f := compress.NewFactory(1024)
	small := bytes.Repeat([]byte("a"), 1024)
	big := bytes.Repeat([]byte("a"), 64<<10)

	for _, typ := range []compress.Type{compress.LZ4, compress.ZSTD, compress.ZLIB} {
		t.Run(typ.String(), func(t *testing.T) {
			c, err := f.Compressor(typ)
			require.NoError(t, err)

			packed, err := c.Compress(small, 5)
			require.NoError(t, err)
			out, err := c.Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, small, out)

			packed, err = c.Compress(big, 5)
			require.NoError(t, err)
			_, err = c.Decompress(packed)
			assert.ErrorIs(t, err, compress.ErrTooLarge)
		})
	}
}
