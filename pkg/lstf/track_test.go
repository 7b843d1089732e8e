package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPadTrackRoundTrip(t *testing.T) {
	events := []PadEvent{
		{Tick: 0, Op: OpFlashColour, OnTicks: 120, OffTicks: 120, Pulses: 4, Colour: PaletteRef(4), HoldTicks: 240},
		{Tick: 960, Op: OpSwitchColour, TransitionTicks: 0, Colour: PaletteRef(0)},
		{Tick: 1200, Op: OpFadeToColour, RampTicks: 480, Pulses: 1, Colour: LiteralColour(1, 2, 3), HoldTicks: 960},
		{Tick: 2400, Op: OpBlackout, TransitionTicks: 60, HoldTicks: 10},
		{Tick: 2400, Op: OpSetDefaultTransition, DefaultTicks: 120},
		{Tick: 3000, Op: OpKeyframeState, StateID: 7},
	}
	payload, err := EncodePadTrack(events)
	require.NoError(t, err)

	var st padDecodeState
	decoded, warnings, err := decodePadEvents(payload, &st, TagPad0)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, events, decoded)
}

func TestPadTrackDeltaAccumulatesAcrossChunks(t *testing.T) {
	first, err := EncodePadTrack([]PadEvent{
		{Tick: 480, Op: OpSwitchColour, Colour: PaletteRef(1)},
	})
	require.NoError(t, err)
	second, err := EncodePadTrack([]PadEvent{
		{Tick: 240, Op: OpSwitchColour, Colour: PaletteRef(2)},
	})
	require.NoError(t, err)

	var st padDecodeState
	a, _, err := decodePadEvents(first, &st, TagPad0)
	require.NoError(t, err)
	b, _, err := decodePadEvents(second, &st, TagPad0)
	require.NoError(t, err)

	require.Equal(t, uint64(480), a[0].Tick)
	// The second chunk's delta continues from the first chunk's cursor.
	require.Equal(t, uint64(720), b[0].Tick)
}

func TestPadTrackDefaultTransitionSentinel(t *testing.T) {
	// Sentinel before any default is set resolves to zero.
	payload, err := EncodePadTrack([]PadEvent{
		{Tick: 0, Op: OpSwitchColour, TransitionTicks: TransitionDefault, Colour: PaletteRef(1)},
	})
	require.NoError(t, err)
	var st padDecodeState
	decoded, _, err := decodePadEvents(payload, &st, TagPad0)
	require.NoError(t, err)
	require.Equal(t, uint16(0), decoded[0].TransitionTicks)

	// After SetDefaultTransition the sentinel resolves to the default, and
	// the resolution survives a chunk boundary.
	setup, err := EncodePadTrack([]PadEvent{
		{Tick: 0, Op: OpSetDefaultTransition, DefaultTicks: 96},
	})
	require.NoError(t, err)
	use, err := EncodePadTrack([]PadEvent{
		{Tick: 480, Op: OpSwitchColour, TransitionTicks: TransitionDefault, Colour: PaletteRef(1)},
		{Tick: 480, Op: OpBlackout, TransitionTicks: TransitionDefault},
	})
	require.NoError(t, err)

	st = padDecodeState{}
	_, _, err = decodePadEvents(setup, &st, TagPad0)
	require.NoError(t, err)
	decoded, _, err = decodePadEvents(use, &st, TagPad0)
	require.NoError(t, err)
	require.Equal(t, uint16(96), decoded[0].TransitionTicks)
	require.Equal(t, uint16(96), decoded[1].TransitionTicks)
}

func TestPadTrackUnknownOpcodeIsFatal(t *testing.T) {
	payload := []byte{0x00, 0x16} // delta 0, opcode 0x16 inside the defined space
	var st padDecodeState
	_, _, err := decodePadEvents(payload, &st, TagPad0)
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestPadTrackVendorOpcodeSkippedWithWarning(t *testing.T) {
	events := []PadEvent{
		{Tick: 0, Op: Opcode(0x35), Raw: []byte{0xDE, 0xAD}},
		{Tick: 100, Op: OpSwitchColour, Colour: PaletteRef(3)},
	}
	payload, err := EncodePadTrack(events)
	require.NoError(t, err)

	var st padDecodeState
	decoded, warnings, err := decodePadEvents(payload, &st, TagPad0)
	require.NoError(t, err)
	require.Equal(t, events, decoded, "raw bytes retained for round-trip fidelity")
	require.Len(t, warnings, 1)
	require.Equal(t, WarnReservedOpcodeSkipped, warnings[0].Code)
}

func TestPadTrackTruncatedEvent(t *testing.T) {
	payload := []byte{0x00, byte(OpSwitchColour), 0x10} // transition field cut short
	var st padDecodeState
	_, _, err := decodePadEvents(payload, &st, TagPad0)
	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestGroupTrackRoundTrip(t *testing.T) {
	events := []GroupEvent{
		{
			Tick: 0, Op: OpSwitchColour, Mask: 0b101,
			Colours:   [NumPads]ColourSpec{PaletteRef(4), {}, LiteralColour(7, 8, 9)},
			HoldTicks: 480,
		},
		{Tick: 960, Op: OpBlackout, Mask: 0b111, TransitionTicks: 120},
		{
			Tick: 1920, Op: OpFlashColour, Mask: 0b010, OnTicks: 60, OffTicks: 60, Pulses: 2,
			Colours: [NumPads]ColourSpec{{}, PaletteRef(9), {}},
		},
	}
	payload, err := EncodeGroupTrack(events)
	require.NoError(t, err)

	var st padDecodeState
	decoded, warnings, err := decodeGroupEvents(payload, &st)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, events, decoded)
}

func TestGroupEventCovers(t *testing.T) {
	g := GroupEvent{Mask: 0b101}
	require.True(t, g.Covers(PadCentre))
	require.False(t, g.Covers(PadLeft))
	require.True(t, g.Covers(PadRight))
	require.False(t, g.Covers(Pad(5)))
}

func TestAudioTrackRoundTrip(t *testing.T) {
	events := []AudioEvent{
		{Tick: 0, Op: OpPlaySample, SampleID: 12, FadeInTicks: 96, FadeOutTicks: 192},
		{Tick: 480, Op: OpSetGain, Gain: 200},
		{Tick: 960, Op: OpStopSample, SampleID: 12, FadeOutTicks: 48},
	}
	payload, err := EncodeAudioTrack(events)
	require.NoError(t, err)

	var st audioDecodeState
	decoded, warnings, err := decodeAudioEvents(payload, &st)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, events, decoded)
}

func TestAudioTrackUnknownOpcodeIsFatal(t *testing.T) {
	payload := []byte{0x00, 0x11} // pad opcode in the audio track
	var st audioDecodeState
	_, _, err := decodeAudioEvents(payload, &st)
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestTempoTrackRoundTrip(t *testing.T) {
	events := []TempoEvent{
		SetTempoAt(0, 500_000),
		SetTimebaseAt(960, 480),
		SetTempoAt(1920, 250_000),
	}
	payload, err := EncodeTempoTrack(events)
	require.NoError(t, err)

	var tick uint64
	decoded, err := decodeTempoEvents(payload, &tick)
	require.NoError(t, err)
	require.Equal(t, events, decoded)
}

func TestTempoTrackRejectsUnknownOpcode(t *testing.T) {
	var tick uint64
	_, err := decodeTempoEvents([]byte{0x00, 0x09}, &tick)
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestColourSpecWireForms(t *testing.T) {
	// Palette reference: single byte, literal flag clear.
	spec, n, err := decodeColourSpec([]byte{0x0E}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, PaletteRef(14), spec)

	// Literal: mode byte with bit 0x20 plus three channel bytes.
	spec, n, err = decodeColourSpec([]byte{0x20, 0xFF, 0x00, 0x99}, 0)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, LiteralColour(0xFF, 0x00, 0x99), spec)

	_, _, err = decodeColourSpec([]byte{0x20, 0xFF}, 0)
	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestSampleTableRoundTrip(t *testing.T) {
	entries := []SampleMeta{
		{SampleID: 1, Encoding: SampleEncodingPCM16, SampleRate: 44_100, LengthTicks: 3840, LoopStart: 0, LoopEnd: 3840, Path: "samples/intro.pcm"},
		{SampleID: 9, Encoding: SampleEncodingOpus, SampleRate: 48_000, LengthTicks: 1920, Path: "samples/hit.opus"},
	}
	payload, err := EncodeSampleTable(entries)
	require.NoError(t, err)

	decoded, err := decodeSampleTable(payload)
	require.NoError(t, err)
	require.Equal(t, entries, decoded)
}

func TestMetaRoundTrip(t *testing.T) {
	entries := []MetaEntry{
		{Key: "title", Value: "Worked Example"},
		{Key: "author", Value: ""},
	}
	payload, err := EncodeMeta(entries)
	require.NoError(t, err)

	decoded, err := decodeMeta(payload)
	require.NoError(t, err)
	require.Equal(t, entries, decoded)
}
