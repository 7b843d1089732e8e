package lstf

import (
	"encoding/binary"
	"fmt"
)

// Track encoders: the inverse of the decoders in track.go. Events must be
// ordered by non-decreasing tick; deltas are derived from the gaps.

// EncodePadTrack builds a PAD0/PAD1/PAD2 chunk payload from events.
func EncodePadTrack(events []PadEvent) ([]byte, error) {
	var payload []byte
	var prev uint64
	for i, ev := range events {
		if ev.Tick < prev {
			return nil, fmt.Errorf("event %d: tick %d precedes previous tick %d", i, ev.Tick, prev)
		}
		delta := ev.Tick - prev
		if delta > 0xFFFFFFFF {
			return nil, fmt.Errorf("event %d: delta %d exceeds varint range", i, delta)
		}
		payload = appendUvarint(payload, uint32(delta))
		payload = append(payload, byte(ev.Op))
		prev = ev.Tick

		switch ev.Op {
		case OpSwitchColour:
			payload = binary.LittleEndian.AppendUint16(payload, ev.TransitionTicks)
			payload = appendColourSpec(payload, ev.Colour)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpFadeToColour:
			payload = binary.LittleEndian.AppendUint16(payload, ev.RampTicks)
			payload = append(payload, ev.Pulses)
			payload = appendColourSpec(payload, ev.Colour)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpFlashColour:
			payload = binary.LittleEndian.AppendUint16(payload, ev.OnTicks)
			payload = binary.LittleEndian.AppendUint16(payload, ev.OffTicks)
			payload = append(payload, ev.Pulses)
			payload = appendColourSpec(payload, ev.Colour)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpBlackout:
			payload = binary.LittleEndian.AppendUint16(payload, ev.TransitionTicks)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpSetDefaultTransition:
			payload = binary.LittleEndian.AppendUint16(payload, ev.DefaultTicks)
		case OpKeyframeState:
			payload = append(payload, ev.StateID)
		default:
			if ev.Op.isVendor() {
				if len(ev.Raw) > 0xFF {
					return nil, fmt.Errorf("event %d: vendor payload exceeds 255 bytes", i)
				}
				payload = append(payload, byte(len(ev.Raw)))
				payload = append(payload, ev.Raw...)
				continue
			}
			return nil, fmt.Errorf("event %d: %w: %#02x", i, ErrUnknownOpcode, uint8(ev.Op))
		}
	}
	return payload, nil
}

// EncodeGroupTrack builds a GRP0 chunk payload from events.
func EncodeGroupTrack(events []GroupEvent) ([]byte, error) {
	var payload []byte
	var prev uint64
	appendMaskColours := func(ev GroupEvent) {
		payload = append(payload, ev.Mask&0x07)
		for p := Pad(0); p < NumPads; p++ {
			if ev.Covers(p) {
				payload = appendColourSpec(payload, ev.Colours[p])
			}
		}
	}
	for i, ev := range events {
		if ev.Tick < prev {
			return nil, fmt.Errorf("event %d: tick %d precedes previous tick %d", i, ev.Tick, prev)
		}
		delta := ev.Tick - prev
		if delta > 0xFFFFFFFF {
			return nil, fmt.Errorf("event %d: delta %d exceeds varint range", i, delta)
		}
		payload = appendUvarint(payload, uint32(delta))
		payload = append(payload, byte(ev.Op))
		prev = ev.Tick

		switch ev.Op {
		case OpSwitchColour:
			payload = binary.LittleEndian.AppendUint16(payload, ev.TransitionTicks)
			appendMaskColours(ev)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpFadeToColour:
			payload = binary.LittleEndian.AppendUint16(payload, ev.RampTicks)
			payload = append(payload, ev.Pulses)
			appendMaskColours(ev)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpFlashColour:
			payload = binary.LittleEndian.AppendUint16(payload, ev.OnTicks)
			payload = binary.LittleEndian.AppendUint16(payload, ev.OffTicks)
			payload = append(payload, ev.Pulses)
			appendMaskColours(ev)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpBlackout:
			payload = append(payload, ev.Mask&0x07)
			payload = binary.LittleEndian.AppendUint16(payload, ev.TransitionTicks)
			payload = binary.LittleEndian.AppendUint16(payload, ev.HoldTicks)
		case OpSetDefaultTransition:
			payload = binary.LittleEndian.AppendUint16(payload, ev.DefaultTicks)
		case OpKeyframeState:
			payload = append(payload, ev.StateID)
		default:
			if ev.Op.isVendor() {
				if len(ev.Raw) > 0xFF {
					return nil, fmt.Errorf("event %d: vendor payload exceeds 255 bytes", i)
				}
				payload = append(payload, byte(len(ev.Raw)))
				payload = append(payload, ev.Raw...)
				continue
			}
			return nil, fmt.Errorf("event %d: %w: %#02x", i, ErrUnknownOpcode, uint8(ev.Op))
		}
	}
	return payload, nil
}

// EncodeAudioTrack builds an AUD0 chunk payload from events.
func EncodeAudioTrack(events []AudioEvent) ([]byte, error) {
	var payload []byte
	var prev uint64
	for i, ev := range events {
		if ev.Tick < prev {
			return nil, fmt.Errorf("event %d: tick %d precedes previous tick %d", i, ev.Tick, prev)
		}
		delta := ev.Tick - prev
		if delta > 0xFFFFFFFF {
			return nil, fmt.Errorf("event %d: delta %d exceeds varint range", i, delta)
		}
		payload = appendUvarint(payload, uint32(delta))
		payload = append(payload, byte(ev.Op))
		prev = ev.Tick

		switch ev.Op {
		case OpPlaySample:
			payload = binary.LittleEndian.AppendUint16(payload, ev.SampleID)
			payload = binary.LittleEndian.AppendUint16(payload, ev.FadeInTicks)
			payload = binary.LittleEndian.AppendUint16(payload, ev.FadeOutTicks)
		case OpStopSample:
			payload = binary.LittleEndian.AppendUint16(payload, ev.SampleID)
			payload = binary.LittleEndian.AppendUint16(payload, ev.FadeOutTicks)
		case OpSetGain:
			payload = append(payload, ev.Gain)
		default:
			if ev.Op.isVendor() {
				if len(ev.Raw) > 0xFF {
					return nil, fmt.Errorf("event %d: vendor payload exceeds 255 bytes", i)
				}
				payload = append(payload, byte(len(ev.Raw)))
				payload = append(payload, ev.Raw...)
				continue
			}
			return nil, fmt.Errorf("event %d: %w: %#02x", i, ErrUnknownOpcode, uint8(ev.Op))
		}
	}
	return payload, nil
}

// EncodeTempoTrack builds a TEMP chunk payload from events.
func EncodeTempoTrack(events []TempoEvent) ([]byte, error) {
	var payload []byte
	var prev uint64
	for i, ev := range events {
		if ev.Tick < prev {
			return nil, fmt.Errorf("event %d: tick %d precedes previous tick %d", i, ev.Tick, prev)
		}
		delta := ev.Tick - prev
		if delta > 0xFFFFFFFF {
			return nil, fmt.Errorf("event %d: delta %d exceeds varint range", i, delta)
		}
		payload = appendUvarint(payload, uint32(delta))
		payload = append(payload, byte(ev.Op))
		prev = ev.Tick

		switch ev.Op {
		case opSetTempo:
			payload = binary.LittleEndian.AppendUint32(payload, ev.MicrosPerBeat)
		case opSetTimebase:
			payload = binary.LittleEndian.AppendUint16(payload, ev.TicksPerBeat)
		default:
			return nil, fmt.Errorf("event %d: %w: %#02x", i, ErrUnknownOpcode, uint8(ev.Op))
		}
	}
	return payload, nil
}

// MetaEntry is one key/value annotation from a META chunk.
type MetaEntry struct {
	Key   string
	Value string
}

// decodeMeta parses a META payload: u8 count, then length-prefixed UTF-8
// key/value pairs.
func decodeMeta(payload []byte) ([]MetaEntry, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	count := int(payload[0])
	offset := 1
	entries := make([]MetaEntry, 0, count)
	for i := 0; i < count; i++ {
		if offset >= len(payload) {
			return nil, fmt.Errorf("%w: incomplete META entry %d", ErrTruncatedChunk, i)
		}
		keyLen := int(payload[offset])
		offset++
		if offset+keyLen+2 > len(payload) {
			return nil, fmt.Errorf("%w: incomplete META key in entry %d", ErrTruncatedChunk, i)
		}
		key := string(payload[offset : offset+keyLen])
		offset += keyLen
		valLen := int(binary.LittleEndian.Uint16(payload[offset : offset+2]))
		offset += 2
		if offset+valLen > len(payload) {
			return nil, fmt.Errorf("%w: incomplete META value in entry %d", ErrTruncatedChunk, i)
		}
		entries = append(entries, MetaEntry{Key: key, Value: string(payload[offset : offset+valLen])})
		offset += valLen
	}
	return entries, nil
}

// EncodeMeta builds a META payload from entries, in order.
func EncodeMeta(entries []MetaEntry) ([]byte, error) {
	if len(entries) > 0xFF {
		return nil, fmt.Errorf("META holds at most 255 entries, got %d", len(entries))
	}
	payload := []byte{byte(len(entries))}
	for _, e := range entries {
		if len(e.Key) > 0xFF {
			return nil, fmt.Errorf("META key %q exceeds 255 bytes", e.Key)
		}
		if len(e.Value) > 0xFFFF {
			return nil, fmt.Errorf("META value for %q exceeds 65535 bytes", e.Key)
		}
		payload = append(payload, byte(len(e.Key)))
		payload = append(payload, e.Key...)
		payload = binary.LittleEndian.AppendUint16(payload, uint16(len(e.Value)))
		payload = append(payload, e.Value...)
	}
	return payload, nil
}
