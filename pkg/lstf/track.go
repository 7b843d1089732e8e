package lstf

import (
	"encoding/binary"
	"fmt"
)

// Track decoders. Each reads `[varint delta][opcode][params]` records,
// accumulating deltas into absolute ticks. Decode state (running tick,
// track default transition) is threaded explicitly so a pad split across
// several chunks keeps accumulating, and so decoding stays a pure fold.

// padDecodeState carries the running cursor for one pad or group track
// across chunk boundaries.
type padDecodeState struct {
	tick         uint64
	defaultSet   bool
	defaultTicks uint16
}

// audioDecodeState carries the running cursor for the audio track.
type audioDecodeState struct {
	tick uint64
}

func readU16(data []byte, offset int) (uint16, error) {
	if offset+2 > len(data) {
		return 0, fmt.Errorf("%w: unexpected end of data reading 16-bit value", ErrTruncatedChunk)
	}
	return binary.LittleEndian.Uint16(data[offset : offset+2]), nil
}

// decodeColourSpec reads one wire colour: a mode byte with bit 0x20 marking
// a literal (followed by three RGB bytes) and the low five bits holding a
// palette index otherwise. Returns the spec and bytes consumed.
func decodeColourSpec(data []byte, offset int) (ColourSpec, int, error) {
	if offset >= len(data) {
		return ColourSpec{}, 0, fmt.Errorf("%w: missing colour specification byte", ErrTruncatedChunk)
	}
	mode := data[offset]
	if mode&0x20 != 0 {
		if offset+4 > len(data) {
			return ColourSpec{}, 0, fmt.Errorf("%w: incomplete literal colour entry", ErrTruncatedChunk)
		}
		return LiteralColour(data[offset+1], data[offset+2], data[offset+3]), 4, nil
	}
	return PaletteRef(mode & 0x1F), 1, nil
}

// appendColourSpec appends the wire form of a colour spec.
func appendColourSpec(dst []byte, spec ColourSpec) []byte {
	if spec.Literal {
		return append(dst, 0x20, spec.Value.R, spec.Value.G, spec.Value.B)
	}
	return append(dst, spec.Index&0x1F)
}

// resolveTransitionSentinel maps the 0xFFFF sentinel to the track's current
// default transition (0 when none has been set yet).
func (st *padDecodeState) resolveTransitionSentinel(ticks uint16) uint16 {
	if ticks != TransitionDefault {
		return ticks
	}
	if st.defaultSet {
		return st.defaultTicks
	}
	return 0
}

// readVendorEvent consumes a self-delimited vendor-space record:
// [u8 length][length raw bytes]. The raw bytes are retained uninterpreted.
func readVendorEvent(payload []byte, offset int) ([]byte, int, error) {
	if offset >= len(payload) {
		return nil, 0, fmt.Errorf("%w: missing vendor opcode length byte", ErrTruncatedChunk)
	}
	n := int(payload[offset])
	if offset+1+n > len(payload) {
		return nil, 0, fmt.Errorf("%w: vendor opcode declares %d bytes, %d remain",
			ErrTruncatedChunk, n, len(payload)-offset-1)
	}
	raw := make([]byte, n)
	copy(raw, payload[offset+1:offset+1+n])
	return raw, 1 + n, nil
}

// decodePadEvents parses one pad track chunk payload. Events come out with
// absolute ticks and concrete (sentinel-resolved) transitions, ordered by
// non-decreasing tick as guaranteed by the delta encoding.
func decodePadEvents(payload []byte, st *padDecodeState, tag string) ([]PadEvent, []Warning, error) {
	var events []PadEvent
	var warnings []Warning
	offset := 0
	for offset < len(payload) {
		delta, consumed, err := readUvarint(payload[offset:])
		if err != nil {
			return nil, warnings, err
		}
		offset += consumed
		st.tick += uint64(delta)
		if offset >= len(payload) {
			return nil, warnings, fmt.Errorf("%w: missing pad opcode byte", ErrTruncatedChunk)
		}
		op := Opcode(payload[offset])
		offset++

		ev := PadEvent{Tick: st.tick, Op: op}
		switch op {
		case OpSwitchColour:
			transition, err := readU16(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			offset += 2
			ev.TransitionTicks = st.resolveTransitionSentinel(transition)
			colour, n, err := decodeColourSpec(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			ev.Colour = colour
			offset += n
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpFadeToColour:
			if ev.RampTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing fade pulse count", ErrTruncatedChunk)
			}
			ev.Pulses = payload[offset]
			offset++
			colour, n, err := decodeColourSpec(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			ev.Colour = colour
			offset += n
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpFlashColour:
			if ev.OnTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			if ev.OffTicks, err = readU16(payload, offset+2); err != nil {
				return nil, warnings, err
			}
			offset += 4
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing flash pulse count", ErrTruncatedChunk)
			}
			ev.Pulses = payload[offset]
			offset++
			colour, n, err := decodeColourSpec(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			ev.Colour = colour
			offset += n
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpBlackout:
			transition, err := readU16(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			offset += 2
			ev.TransitionTicks = st.resolveTransitionSentinel(transition)
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpSetDefaultTransition:
			ticks, err := readU16(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			offset += 2
			st.defaultSet = true
			st.defaultTicks = ticks
			ev.DefaultTicks = ticks

		case OpKeyframeState:
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing keyframe state id", ErrTruncatedChunk)
			}
			ev.StateID = payload[offset]
			offset++

		default:
			if op.isVendor() {
				raw, n, err := readVendorEvent(payload, offset)
				if err != nil {
					return nil, warnings, err
				}
				ev.Raw = raw
				offset += n
				warnings = append(warnings, Warning{
					Code:    WarnReservedOpcodeSkipped,
					Chunk:   tag,
					Message: fmt.Sprintf("opcode %#02x at tick %d recorded as %d opaque bytes", uint8(op), st.tick, len(raw)),
				})
				break
			}
			return nil, warnings, fmt.Errorf("%w: %#02x in %s", ErrUnknownOpcode, uint8(op), tag)
		}

		events = append(events, ev)
	}
	return events, warnings, nil
}

// decodeGroupEvents parses one GRP0 chunk payload. Command opcodes replace
// the single colour field with a pad mask followed by one ColourSpec per
// enabled pad (ascending bit order); Blackout gains a leading mask byte.
func decodeGroupEvents(payload []byte, st *padDecodeState) ([]GroupEvent, []Warning, error) {
	var events []GroupEvent
	var warnings []Warning
	offset := 0
	for offset < len(payload) {
		delta, consumed, err := readUvarint(payload[offset:])
		if err != nil {
			return nil, warnings, err
		}
		offset += consumed
		st.tick += uint64(delta)
		if offset >= len(payload) {
			return nil, warnings, fmt.Errorf("%w: missing group opcode byte", ErrTruncatedChunk)
		}
		op := Opcode(payload[offset])
		offset++

		ev := GroupEvent{Tick: st.tick, Op: op}

		readMaskColours := func() error {
			if offset >= len(payload) {
				return fmt.Errorf("%w: missing group pad mask", ErrTruncatedChunk)
			}
			ev.Mask = payload[offset] & 0x07
			offset++
			for p := Pad(0); p < NumPads; p++ {
				if !ev.Covers(p) {
					continue
				}
				colour, n, err := decodeColourSpec(payload, offset)
				if err != nil {
					return err
				}
				ev.Colours[p] = colour
				offset += n
			}
			return nil
		}

		switch op {
		case OpSwitchColour:
			transition, err := readU16(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			offset += 2
			ev.TransitionTicks = st.resolveTransitionSentinel(transition)
			if err := readMaskColours(); err != nil {
				return nil, warnings, err
			}
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpFadeToColour:
			if ev.RampTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing group fade pulse count", ErrTruncatedChunk)
			}
			ev.Pulses = payload[offset]
			offset++
			if err := readMaskColours(); err != nil {
				return nil, warnings, err
			}
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpFlashColour:
			if ev.OnTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			if ev.OffTicks, err = readU16(payload, offset+2); err != nil {
				return nil, warnings, err
			}
			offset += 4
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing group flash pulse count", ErrTruncatedChunk)
			}
			ev.Pulses = payload[offset]
			offset++
			if err := readMaskColours(); err != nil {
				return nil, warnings, err
			}
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpBlackout:
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing group pad mask", ErrTruncatedChunk)
			}
			ev.Mask = payload[offset] & 0x07
			offset++
			transition, err := readU16(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			offset += 2
			ev.TransitionTicks = st.resolveTransitionSentinel(transition)
			if ev.HoldTicks, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			offset += 2

		case OpSetDefaultTransition:
			ticks, err := readU16(payload, offset)
			if err != nil {
				return nil, warnings, err
			}
			offset += 2
			st.defaultSet = true
			st.defaultTicks = ticks
			ev.DefaultTicks = ticks

		case OpKeyframeState:
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing keyframe state id", ErrTruncatedChunk)
			}
			ev.StateID = payload[offset]
			offset++

		default:
			if op.isVendor() {
				raw, n, err := readVendorEvent(payload, offset)
				if err != nil {
					return nil, warnings, err
				}
				ev.Raw = raw
				offset += n
				warnings = append(warnings, Warning{
					Code:    WarnReservedOpcodeSkipped,
					Chunk:   TagGroup,
					Message: fmt.Sprintf("opcode %#02x at tick %d recorded as %d opaque bytes", uint8(op), st.tick, len(raw)),
				})
				break
			}
			return nil, warnings, fmt.Errorf("%w: %#02x in %s", ErrUnknownOpcode, uint8(op), TagGroup)
		}

		events = append(events, ev)
	}
	return events, warnings, nil
}

// decodeAudioEvents parses one AUD0 chunk payload.
func decodeAudioEvents(payload []byte, st *audioDecodeState) ([]AudioEvent, []Warning, error) {
	var events []AudioEvent
	var warnings []Warning
	offset := 0
	for offset < len(payload) {
		delta, consumed, err := readUvarint(payload[offset:])
		if err != nil {
			return nil, warnings, err
		}
		offset += consumed
		st.tick += uint64(delta)
		if offset >= len(payload) {
			return nil, warnings, fmt.Errorf("%w: missing audio opcode byte", ErrTruncatedChunk)
		}
		op := Opcode(payload[offset])
		offset++

		ev := AudioEvent{Tick: st.tick, Op: op}
		switch op {
		case OpPlaySample:
			if ev.SampleID, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			if ev.FadeInTicks, err = readU16(payload, offset+2); err != nil {
				return nil, warnings, err
			}
			if ev.FadeOutTicks, err = readU16(payload, offset+4); err != nil {
				return nil, warnings, err
			}
			offset += 6

		case OpStopSample:
			if ev.SampleID, err = readU16(payload, offset); err != nil {
				return nil, warnings, err
			}
			if ev.FadeOutTicks, err = readU16(payload, offset+2); err != nil {
				return nil, warnings, err
			}
			offset += 4

		case OpSetGain:
			if offset >= len(payload) {
				return nil, warnings, fmt.Errorf("%w: missing gain byte", ErrTruncatedChunk)
			}
			ev.Gain = payload[offset]
			offset++

		default:
			if op.isVendor() {
				raw, n, err := readVendorEvent(payload, offset)
				if err != nil {
					return nil, warnings, err
				}
				ev.Raw = raw
				offset += n
				warnings = append(warnings, Warning{
					Code:    WarnReservedOpcodeSkipped,
					Chunk:   TagAudio,
					Message: fmt.Sprintf("opcode %#02x at tick %d recorded as %d opaque bytes", uint8(op), st.tick, len(raw)),
				})
				break
			}
			return nil, warnings, fmt.Errorf("%w: %#02x in %s", ErrUnknownOpcode, uint8(op), TagAudio)
		}

		events = append(events, ev)
	}
	return events, warnings, nil
}

// decodeTempoEvents parses one TEMP chunk payload.
func decodeTempoEvents(payload []byte, tick *uint64) ([]TempoEvent, error) {
	var events []TempoEvent
	offset := 0
	for offset < len(payload) {
		delta, consumed, err := readUvarint(payload[offset:])
		if err != nil {
			return nil, err
		}
		offset += consumed
		*tick += uint64(delta)
		if offset >= len(payload) {
			return nil, fmt.Errorf("%w: missing tempo opcode byte", ErrTruncatedChunk)
		}
		op := Opcode(payload[offset])
		offset++

		switch op {
		case opSetTempo:
			if offset+4 > len(payload) {
				return nil, fmt.Errorf("%w: incomplete SetTempo payload", ErrTruncatedChunk)
			}
			events = append(events, SetTempoAt(*tick, binary.LittleEndian.Uint32(payload[offset:offset+4])))
			offset += 4
		case opSetTimebase:
			if offset+2 > len(payload) {
				return nil, fmt.Errorf("%w: incomplete SetTimebase payload", ErrTruncatedChunk)
			}
			events = append(events, SetTimebaseAt(*tick, binary.LittleEndian.Uint16(payload[offset:offset+2])))
			offset += 2
		default:
			return nil, fmt.Errorf("%w: %#02x in %s", ErrUnknownOpcode, uint8(op), TagTempo)
		}
	}
	return events, nil
}
