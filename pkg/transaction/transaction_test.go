package transaction

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
)

func TestUpload_SplitsAtSegmentSize(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, SegmentSize+1)
	u, err := NewUpload(data)
	require.NoError(t, err)
	assert.Equal(t, 2, u.NumSegments())

	exact, err := NewUpload(bytes.Repeat([]byte{0xCD}, SegmentSize))
	require.NoError(t, err)
	assert.Equal(t, 1, exact.NumSegments())

	_, err = NewUpload(nil)
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)
}

func TestUpload_SequencesSegments(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, SegmentSize+100)
	u, err := NewUpload(data)
	require.NoError(t, err)
	assert.Equal(t, PhaseInitialization, u.Phase())

	// No segment before the bank assigns the transaction id.
	_, _, _, err = u.Next()
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)

	require.NoError(t, u.Begin("TX42"))
	assert.Equal(t, "TX42", u.TransactionID())
	assert.Equal(t, PhaseTransfer, u.Phase())
	assert.ErrorIs(t, u.Begin("TX43"), ebics.ErrInvalidRequest)

	seg1, n, last, err := u.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, last)
	assert.Len(t, seg1, SegmentSize)

	seg2, n, last, err := u.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, last)
	assert.Len(t, seg2, 100)
	assert.Equal(t, PhaseDone, u.Phase())

	_, _, _, err = u.Next()
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)
}

func TestDownload_CollectsAndAssembles(t *testing.T) {
	d := NewDownload()
	assert.Equal(t, PhaseInitialization, d.Phase())

	assert.ErrorIs(t, d.Add(1, []byte("early")), ebics.ErrInvalidRequest)
	assert.ErrorIs(t, d.Begin("", 2), ebics.ErrInvalidRequest)
	assert.ErrorIs(t, d.Begin("TX7", 0), ebics.ErrInvalidRequest)

	require.NoError(t, d.Begin("TX7", 2))
	assert.Equal(t, PhaseTransfer, d.Phase())
	assert.Equal(t, 1, d.NextSegment())

	_, err := d.Assemble()
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)

	// Out-of-order delivery is a protocol violation.
	assert.ErrorIs(t, d.Add(2, []byte("bb")), ebics.ErrInvalidRequest)

	require.NoError(t, d.Add(1, []byte("aa")))
	assert.Equal(t, 2, d.NextSegment())
	require.NoError(t, d.Add(2, []byte("bb")))
	assert.True(t, d.Complete())
	assert.Equal(t, PhaseReceipt, d.Phase())

	payload, err := d.Assemble()
	require.NoError(t, err)
	assert.Equal(t, []byte("aabb"), payload)

	assert.ErrorIs(t, d.Add(3, []byte("cc")), ebics.ErrInvalidRequest)
}

func TestDownload_Close(t *testing.T) {
	d := NewDownload()
	require.NoError(t, d.Begin("TX9", 1))

	assert.ErrorIs(t, d.Close(), ebics.ErrInvalidRequest)

	require.NoError(t, d.Add(1, []byte("payload")))
	require.NoError(t, d.Close())
	assert.Equal(t, PhaseDone, d.Phase())
	assert.ErrorIs(t, d.Close(), ebics.ErrInvalidRequest)
}
