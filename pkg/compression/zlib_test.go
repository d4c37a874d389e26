package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec()
	payloads := [][]byte{
		[]byte(""),
		[]byte("x"),
		[]byte(`<HIARequestOrderData><AuthenticationPubKeyInfo/></HIARequestOrderData>`),
		bytes.Repeat([]byte("segmented order data "), 10_000),
	}
	for _, payload := range payloads {
		deflated, err := codec.Compress(payload)
		require.NoError(t, err)
		inflated, err := codec.Decompress(deflated)
		require.NoError(t, err)
		assert.Equal(t, payload, inflated)
	}
}

func TestCodec_CompressesRepetitiveData(t *testing.T) {
	codec := NewCodec()
	payload := bytes.Repeat([]byte("<Tx>0.00</Tx>"), 1000)
	deflated, err := codec.Compress(payload)
	require.NoError(t, err)
	assert.Less(t, len(deflated), len(payload))
}

func TestCodec_RejectsGarbage(t *testing.T) {
	codec := NewCodec()
	_, err := codec.Decompress([]byte("this is not a zlib stream"))
	assert.Error(t, err)
}
