package lstf

import (
	"encoding/binary"
	"fmt"
)

// Chunk tags defined by the format. Tags are not unique across a stream;
// the arrival order of same-tag chunks is significant (override-type chunks
// apply last-wins).
const (
	TagHead    = "HEAD"
	TagTempo   = "TEMP"
	TagPad0    = "PAD0"
	TagPad1    = "PAD1"
	TagPad2    = "PAD2"
	TagGroup   = "GRP0"
	TagAudio   = "AUD0"
	TagSamples = "SAMP"
	TagState   = "STAT"
	TagPalette = "PAL0"
	TagMeta    = "META"
)

const chunkHeaderSize = 8 // 4-byte tag + u32 length

// Chunk is one tag+payload record from a container stream. The container
// layer has no knowledge of payload semantics; unknown tags are carried
// through untouched for forward compatibility.
type Chunk struct {
	Tag     string // 4-byte ASCII code
	Payload []byte
}

// Validate checks the chunk is encodable: a 4-byte ASCII tag and a payload
// that fits the u32 length prefix.
func (c Chunk) Validate() error {
	if len(c.Tag) != 4 {
		return fmt.Errorf("chunk tag must be exactly 4 bytes, got %q", c.Tag)
	}
	for i := 0; i < len(c.Tag); i++ {
		if c.Tag[i] > 0x7F {
			return fmt.Errorf("chunk tag must be ASCII, got %q", c.Tag)
		}
	}
	if uint64(len(c.Payload)) > 0xFFFFFFFF {
		return fmt.Errorf("chunk payload exceeds u32 length prefix")
	}
	return nil
}

// ParseChunks reads every chunk from data with a simple forward cursor.
// It is a pure transform: no semantic interpretation happens here.
// Returns ErrTruncatedChunk when a length prefix overruns the data.
func ParseChunks(data []byte) ([]Chunk, error) {
	var chunks []Chunk
	offset := 0
	for offset < len(data) {
		chunk, consumed, err := parseChunkAt(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("at offset %d: %w", offset, err)
		}
		chunks = append(chunks, chunk)
		offset += consumed
	}
	return chunks, nil
}

// parseChunkAt decodes a single chunk from the front of data, returning it
// and the total number of bytes consumed.
func parseChunkAt(data []byte) (Chunk, int, error) {
	if len(data) < chunkHeaderSize {
		return Chunk{}, 0, fmt.Errorf("%w: %d bytes left, need %d for chunk header",
			ErrTruncatedChunk, len(data), chunkHeaderSize)
	}
	tag := string(data[:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	total := chunkHeaderSize + int(length)
	if len(data) < total {
		return Chunk{}, 0, fmt.Errorf("%w: chunk %q declares %d payload bytes, %d remain",
			ErrTruncatedChunk, tag, length, len(data)-chunkHeaderSize)
	}
	payload := make([]byte, length)
	copy(payload, data[chunkHeaderSize:total])
	return Chunk{Tag: tag, Payload: payload}, total, nil
}

// AppendChunk appends the wire encoding of one chunk to dst.
func AppendChunk(dst []byte, tag string, payload []byte) ([]byte, error) {
	c := Chunk{Tag: tag, Payload: payload}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	dst = append(dst, tag...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...), nil
}

// EncodeChunks concatenates the wire encoding of every chunk.
func EncodeChunks(chunks []Chunk) ([]byte, error) {
	var out []byte
	for _, c := range chunks {
		var err error
		out, err = AppendChunk(out, c.Tag, c.Payload)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
