package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, 0xFFFFFFFF}
	for _, v := range values {
		encoded := appendUvarint(nil, v)
		decoded, consumed, err := readUvarint(encoded)
		require.NoError(t, err, "value %#x", v)
		require.Equal(t, v, decoded)
		require.Equal(t, len(encoded), consumed)
	}
}

func TestVarintSingleByteBoundary(t *testing.T) {
	require.Equal(t, []byte{0x7F}, appendUvarint(nil, 0x7F))
	require.Equal(t, []byte{0x80, 0x01}, appendUvarint(nil, 0x80))
}

func TestVarintContinuationBound(t *testing.T) {
	// Six continuation bytes never terminate within the 32-bit bound.
	_, _, err := readUvarint([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
	require.ErrorIs(t, err, ErrMalformedVarint)
}

func TestVarintTruncatedStream(t *testing.T) {
	_, _, err := readUvarint([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrMalformedVarint)

	_, _, err = readUvarint(nil)
	require.ErrorIs(t, err, ErrMalformedVarint)
}

func TestVarintFiveBytesIsLegal(t *testing.T) {
	// 0xFFFFFFFF takes exactly five bytes.
	encoded := appendUvarint(nil, 0xFFFFFFFF)
	require.Len(t, encoded, 5)
	decoded, consumed, err := readUvarint(encoded)
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), decoded)
	require.Equal(t, 5, consumed)
}
