package lstf

import (
	"encoding/binary"
	"fmt"
)

// SampleEncoding identifies the stored sample payload format. The core never
// decodes sample data; the value is passed through to the external audio
// engine.
type SampleEncoding uint8

const (
	SampleEncodingPCM16 SampleEncoding = 0
	SampleEncodingADPCM SampleEncoding = 1
	SampleEncodingOpus  SampleEncoding = 2
)

// String returns the encoding's short name.
func (e SampleEncoding) String() string {
	switch e {
	case SampleEncodingPCM16:
		return "pcm16"
	case SampleEncodingADPCM:
		return "adpcm"
	case SampleEncodingOpus:
		return "opus"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// SampleMeta describes one entry of the SAMP lookup table.
type SampleMeta struct {
	SampleID    uint16
	Encoding    SampleEncoding
	SampleRate  uint32
	LengthTicks uint32
	LoopStart   uint32
	LoopEnd     uint32
	Path        string
}

// Validate checks internal consistency of the entry.
func (s SampleMeta) Validate() error {
	if s.LoopEnd < s.LoopStart {
		return fmt.Errorf("sample %d: loop end %d precedes loop start %d", s.SampleID, s.LoopEnd, s.LoopStart)
	}
	if len(s.Path) > 0xFF {
		return fmt.Errorf("sample %d: path exceeds 255 bytes", s.SampleID)
	}
	return nil
}

// decodeSampleTable parses a SAMP payload: u16 count, then fixed fields plus
// a length-prefixed path per entry. Duplicate sample ids: last wins.
func decodeSampleTable(payload []byte) ([]SampleMeta, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: SAMP chunk shorter than its count field", ErrTruncatedChunk)
	}
	count := int(binary.LittleEndian.Uint16(payload[0:2]))
	offset := 2
	entries := make([]SampleMeta, 0, count)
	for i := 0; i < count; i++ {
		// Fixed portion: id(2) encoding(1) rate(4) length(4) loop_start(4) loop_end(4) path_len(1)
		if offset+20 > len(payload) {
			return nil, fmt.Errorf("%w: incomplete sample entry %d", ErrTruncatedChunk, i)
		}
		meta := SampleMeta{
			SampleID:    binary.LittleEndian.Uint16(payload[offset : offset+2]),
			Encoding:    SampleEncoding(payload[offset+2]),
			SampleRate:  binary.LittleEndian.Uint32(payload[offset+3 : offset+7]),
			LengthTicks: binary.LittleEndian.Uint32(payload[offset+7 : offset+11]),
			LoopStart:   binary.LittleEndian.Uint32(payload[offset+11 : offset+15]),
			LoopEnd:     binary.LittleEndian.Uint32(payload[offset+15 : offset+19]),
		}
		pathLen := int(payload[offset+19])
		offset += 20
		if offset+pathLen > len(payload) {
			return nil, fmt.Errorf("%w: incomplete sample path in entry %d", ErrTruncatedChunk, i)
		}
		meta.Path = string(payload[offset : offset+pathLen])
		offset += pathLen
		entries = append(entries, meta)
	}
	return entries, nil
}

// EncodeSampleTable builds a SAMP payload from entries, in order.
func EncodeSampleTable(entries []SampleMeta) ([]byte, error) {
	if len(entries) > 0xFFFF {
		return nil, fmt.Errorf("sample table holds at most 65535 entries, got %d", len(entries))
	}
	payload := binary.LittleEndian.AppendUint16(nil, uint16(len(entries)))
	for _, s := range entries {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		payload = binary.LittleEndian.AppendUint16(payload, s.SampleID)
		payload = append(payload, byte(s.Encoding))
		payload = binary.LittleEndian.AppendUint32(payload, s.SampleRate)
		payload = binary.LittleEndian.AppendUint32(payload, s.LengthTicks)
		payload = binary.LittleEndian.AppendUint32(payload, s.LoopStart)
		payload = binary.LittleEndian.AppendUint32(payload, s.LoopEnd)
		payload = append(payload, byte(len(s.Path)))
		payload = append(payload, s.Path...)
	}
	return payload, nil
}
