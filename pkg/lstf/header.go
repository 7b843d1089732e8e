package lstf

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic is the u32 value opening every HEAD chunk ("LSTF" read as a
	// little-endian integer).
	Magic = 0x4C535446

	// FormatVersion is the container version this package reads and writes.
	FormatVersion = 1

	headerSize = 16
)

// HeaderFlags is the bitfield in the HEAD chunk.
type HeaderFlags uint16

const (
	// FlagLoopable marks a program intended to repeat from tick 0.
	FlagLoopable HeaderFlags = 1 << 0

	// FlagHasSnapshots declares that STAT chunks are present.
	FlagHasSnapshots HeaderFlags = 1 << 1
)

// Header is the decoded HEAD chunk. It must be validated before any other
// chunk in the stream is trusted.
type Header struct {
	TicksPerBeat  uint16      // Initial time base (resolution divisor)
	MicrosPerBeat uint32      // Initial tempo in microseconds per beat
	TrackCount    uint16      // Declared track count (informational)
	Flags         HeaderFlags
}

// Loopable reports whether the program is flagged to repeat.
func (h Header) Loopable() bool { return h.Flags&FlagLoopable != 0 }

// HasSnapshots reports whether STAT chunks are declared.
func (h Header) HasSnapshots() bool { return h.Flags&FlagHasSnapshots != 0 }

// Validate checks the header fields hold values the tempo map can work with.
func (h Header) Validate() error {
	if h.TicksPerBeat == 0 {
		return fmt.Errorf("ticks_per_beat must be positive")
	}
	if h.MicrosPerBeat == 0 {
		return fmt.Errorf("initial tempo must be positive")
	}
	return nil
}

// parseHeader decodes a HEAD chunk payload.
// Layout: u32 magic, u16 version, u16 ticks_per_beat, u32 tempo,
// u16 track_count, u16 flags, all little-endian.
func parseHeader(payload []byte) (Header, error) {
	if len(payload) < headerSize {
		return Header{}, fmt.Errorf("%w: HEAD chunk must contain at least %d bytes, got %d",
			ErrTruncatedChunk, headerSize, len(payload))
	}
	magic := binary.LittleEndian.Uint32(payload[0:4])
	if magic != Magic {
		return Header{}, fmt.Errorf("%w: %#08x", ErrBadMagic, magic)
	}
	version := binary.LittleEndian.Uint16(payload[4:6])
	if version != FormatVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}
	h := Header{
		TicksPerBeat:  binary.LittleEndian.Uint16(payload[6:8]),
		MicrosPerBeat: binary.LittleEndian.Uint32(payload[8:12]),
		TrackCount:    binary.LittleEndian.Uint16(payload[12:14]),
		Flags:         HeaderFlags(binary.LittleEndian.Uint16(payload[14:16])),
	}
	if err := h.Validate(); err != nil {
		return Header{}, fmt.Errorf("invalid HEAD chunk: %w", err)
	}
	return h, nil
}

// EncodeHeader produces a HEAD chunk payload for h.
func EncodeHeader(h Header) []byte {
	payload := make([]byte, 0, headerSize)
	payload = binary.LittleEndian.AppendUint32(payload, Magic)
	payload = binary.LittleEndian.AppendUint16(payload, FormatVersion)
	payload = binary.LittleEndian.AppendUint16(payload, h.TicksPerBeat)
	payload = binary.LittleEndian.AppendUint32(payload, h.MicrosPerBeat)
	payload = binary.LittleEndian.AppendUint16(payload, h.TrackCount)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(h.Flags))
	return payload
}
