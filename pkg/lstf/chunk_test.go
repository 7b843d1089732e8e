package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChunksForwardCursor(t *testing.T) {
	var data []byte
	var err error
	data, err = AppendChunk(data, "HEAD", []byte{1, 2, 3})
	require.NoError(t, err)
	data, err = AppendChunk(data, "PAD0", nil)
	require.NoError(t, err)
	data, err = AppendChunk(data, "XYZ1", []byte{0xAA})
	require.NoError(t, err)

	chunks, err := ParseChunks(data)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, "HEAD", chunks[0].Tag)
	require.Equal(t, []byte{1, 2, 3}, chunks[0].Payload)
	require.Equal(t, "PAD0", chunks[1].Tag)
	require.Empty(t, chunks[1].Payload)
	require.Equal(t, "XYZ1", chunks[2].Tag)
}

func TestParseChunksTruncatedPayload(t *testing.T) {
	data, err := AppendChunk(nil, "PAD0", []byte{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = ParseChunks(data[:len(data)-1])
	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestParseChunksTruncatedHeader(t *testing.T) {
	_, err := ParseChunks([]byte("HEA"))
	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestChunkValidate(t *testing.T) {
	require.NoError(t, Chunk{Tag: "HEAD"}.Validate())
	require.Error(t, Chunk{Tag: "TOOLONG"}.Validate())
	require.Error(t, Chunk{Tag: "AB"}.Validate())
	require.Error(t, Chunk{Tag: "AB\xC3\xA9"}.Validate())
}

func TestEncodeChunksRoundTrip(t *testing.T) {
	in := []Chunk{
		{Tag: "HEAD", Payload: []byte{9, 8, 7}},
		{Tag: "ZZZZ", Payload: []byte("opaque payload")},
	}
	data, err := EncodeChunks(in)
	require.NoError(t, err)

	out, err := ParseChunks(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestStreamReaderReassemblesSplitChunks(t *testing.T) {
	var data []byte
	var err error
	data, err = AppendChunk(data, "HEAD", make([]byte, 16))
	require.NoError(t, err)
	data, err = AppendChunk(data, "PAD0", []byte{0, 0x13, 0, 0, 0, 0})
	require.NoError(t, err)

	want, err := ParseChunks(data)
	require.NoError(t, err)

	// Feed one byte at a time: every chunk must still come out whole.
	reader := NewStreamReader()
	var got []Chunk
	for _, b := range data {
		got = append(got, reader.Feed([]byte{b})...)
	}
	require.Equal(t, want, got)
	require.Zero(t, reader.Pending())
}

func TestStreamReaderBuffersPartialChunk(t *testing.T) {
	data, err := AppendChunk(nil, "TEMP", []byte{0, 0x01, 0x20, 0xA1, 0x07, 0x00})
	require.NoError(t, err)

	reader := NewStreamReader()
	require.Empty(t, reader.Feed(data[:5]))
	require.Equal(t, 5, reader.Pending())

	chunks := reader.Feed(data[5:])
	require.Len(t, chunks, 1)
	require.Equal(t, "TEMP", chunks[0].Tag)
	require.Zero(t, reader.Pending())
}
