package lstf

import (
	"encoding/binary"
	"sync"
)

// StreamReader reassembles chunks from an incrementally delivered byte
// stream. It buffers any partial chunk until its length prefix and payload
// have fully arrived; a half-received chunk is never an error, the reader
// simply stops advancing until more bytes are fed.
//
// Feed calls are serialized (single-writer discipline). Chunks returned from
// Feed are complete and owned by the caller.
type StreamReader struct {
	mu  sync.Mutex
	buf []byte
}

// NewStreamReader returns an empty reader.
func NewStreamReader() *StreamReader {
	return &StreamReader{}
}

// Feed appends data to the internal buffer and returns every chunk that is
// now complete, in stream order.
func (r *StreamReader) Feed(data []byte) []Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf = append(r.buf, data...)

	var chunks []Chunk
	for {
		if len(r.buf) < chunkHeaderSize {
			break
		}
		length := binary.LittleEndian.Uint32(r.buf[4:8])
		total := chunkHeaderSize + int(length)
		if len(r.buf) < total {
			break
		}
		payload := make([]byte, length)
		copy(payload, r.buf[chunkHeaderSize:total])
		chunks = append(chunks, Chunk{Tag: string(r.buf[:4]), Payload: payload})
		r.buf = r.buf[total:]
	}

	// Reclaim the backing array once everything buffered has been consumed.
	if len(r.buf) == 0 {
		r.buf = nil
	}
	return chunks
}

// Pending returns the number of buffered bytes still waiting for the rest of
// their chunk.
func (r *StreamReader) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
