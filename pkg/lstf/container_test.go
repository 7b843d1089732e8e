package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildStream concatenates chunks into wire bytes, failing the test on any
// encoding problem.
func buildStream(t *testing.T, chunks ...Chunk) []byte {
	t.Helper()
	data, err := EncodeChunks(chunks)
	require.NoError(t, err)
	return data
}

func headChunk(t *testing.T, h Header) Chunk {
	t.Helper()
	return Chunk{Tag: TagHead, Payload: EncodeHeader(h)}
}

func padChunk(t *testing.T, tag string, events []PadEvent) Chunk {
	t.Helper()
	payload, err := EncodePadTrack(events)
	require.NoError(t, err)
	return Chunk{Tag: tag, Payload: payload}
}

func TestDecodeFullContainer(t *testing.T) {
	palette, err := EncodePaletteOverride([]PaletteEntry{{Index: 14, Colour: RGB{0, 0xFF, 0}}})
	require.NoError(t, err)
	samples, err := EncodeSampleTable([]SampleMeta{
		{SampleID: 3, Encoding: SampleEncodingPCM16, SampleRate: 44_100, LengthTicks: 960, Path: "samples/chime.pcm"},
	})
	require.NoError(t, err)
	audio, err := EncodeAudioTrack([]AudioEvent{
		{Tick: 0, Op: OpPlaySample, SampleID: 3},
	})
	require.NoError(t, err)
	meta, err := EncodeMeta([]MetaEntry{{Key: "title", Value: "demo"}})
	require.NoError(t, err)

	data := buildStream(t,
		headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000, TrackCount: 4, Flags: FlagLoopable}),
		Chunk{Tag: TagPalette, Payload: palette},
		padChunk(t, TagPad0, []PadEvent{
			{Tick: 0, Op: OpSwitchColour, Colour: PaletteRef(4)},
			{Tick: 960, Op: OpBlackout, TransitionTicks: 120},
		}),
		Chunk{Tag: TagSamples, Payload: samples},
		Chunk{Tag: TagAudio, Payload: audio},
		Chunk{Tag: TagMeta, Payload: meta},
	)

	c, err := Decode(data)
	require.NoError(t, err)

	h := c.Header()
	require.Equal(t, uint16(960), h.TicksPerBeat)
	require.Equal(t, uint32(500_000), h.MicrosPerBeat)
	require.True(t, h.Loopable())
	require.False(t, h.HasSnapshots())

	require.Len(t, c.PadTrack(PadCentre), 2)
	require.Empty(t, c.PadTrack(PadLeft))
	require.Len(t, c.AudioTrack(), 1)

	sampleMeta, ok := c.Sample(3)
	require.True(t, ok)
	require.Equal(t, "samples/chime.pcm", sampleMeta.Path)

	require.Equal(t, []MetaEntry{{Key: "title", Value: "demo"}}, c.Meta())

	green, err := c.Palette().Resolve(PaletteRef(14))
	require.NoError(t, err)
	require.Equal(t, RGB{0, 0xFF, 0}, green)

	require.Empty(t, c.Warnings())
}

func TestDecodeRequiresHeadFirst(t *testing.T) {
	data := buildStream(t,
		padChunk(t, TagPad0, []PadEvent{{Tick: 0, Op: OpSwitchColour, Colour: PaletteRef(1)}}),
	)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrMissingHeader)

	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrMissingHeader)
}

func TestDecodeRejectsDuplicateHead(t *testing.T) {
	head := headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000})
	_, err := Decode(buildStream(t, head, head))
	require.ErrorIs(t, err, ErrDuplicateHeader)
}

func TestDecodeRejectsBadMagicAndVersion(t *testing.T) {
	good := EncodeHeader(Header{TicksPerBeat: 960, MicrosPerBeat: 500_000})

	bad := append([]byte(nil), good...)
	bad[0] ^= 0xFF
	_, err := Decode(buildStream(t, Chunk{Tag: TagHead, Payload: bad}))
	require.ErrorIs(t, err, ErrBadMagic)

	bad = append([]byte(nil), good...)
	bad[4] = 0x02
	_, err = Decode(buildStream(t, Chunk{Tag: TagHead, Payload: bad}))
	require.ErrorIs(t, err, ErrBadVersion)
}

func TestDecodeUnknownChunkRetainedWithWarning(t *testing.T) {
	data := buildStream(t,
		headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000}),
		Chunk{Tag: "ZQ99", Payload: []byte{1, 2, 3}},
	)
	c, err := Decode(data)
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	require.Equal(t, WarnUnknownChunkRetained, warnings[0].Code)
	require.Equal(t, "ZQ99", warnings[0].Chunk)

	// The opaque chunk survives re-encoding untouched.
	out, err := c.Encode()
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestDecodeEncodeRoundTripsByteExact(t *testing.T) {
	snapPayload, err := EncodeSnapshot(Snapshot{
		StateID: 1, Tick: 960, WallMicros: 500_000,
		Pads: [NumPads]Command{{Primitive: PrimitiveSwitch, Colour: RGB{0xFF, 0, 0}}},
	})
	require.NoError(t, err)
	tempo, err := EncodeTempoTrack([]TempoEvent{SetTempoAt(960, 250_000)})
	require.NoError(t, err)

	data := buildStream(t,
		headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000, Flags: FlagHasSnapshots}),
		Chunk{Tag: TagTempo, Payload: tempo},
		padChunk(t, TagPad1, []PadEvent{
			{Tick: 0, Op: OpSetDefaultTransition, DefaultTicks: 96},
			{Tick: 0, Op: OpFadeToColour, RampTicks: 480, Pulses: 2, Colour: LiteralColour(9, 9, 9), HoldTicks: 96},
			{Tick: 480, Op: Opcode(0x30), Raw: []byte{0x01}},
		}),
		Chunk{Tag: TagState, Payload: snapPayload},
	)

	c, err := Decode(data)
	require.NoError(t, err)

	out, err := c.Encode()
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestStreamingApplyAdvancesRevision(t *testing.T) {
	c, reader := DecodeStream()
	before := c.Revision()

	data := buildStream(t,
		headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000}),
		padChunk(t, TagPad2, []PadEvent{{Tick: 480, Op: OpSwitchColour, Colour: PaletteRef(7)}}),
		padChunk(t, TagPad2, []PadEvent{{Tick: 480, Op: OpSwitchColour, Colour: PaletteRef(8)}}),
	)

	var applied int
	for _, b := range data {
		for _, chunk := range reader.Feed([]byte{b}) {
			require.NoError(t, c.Apply(chunk))
			applied++
			next := c.Revision()
			require.NotEqual(t, before, next)
			before = next
		}
	}
	require.Equal(t, 3, applied)

	// Tick deltas accumulate across the two PAD2 chunks.
	track := c.PadTrack(PadRight)
	require.Len(t, track, 2)
	require.Equal(t, uint64(480), track[0].Tick)
	require.Equal(t, uint64(960), track[1].Tick)
}

func TestStreamingTempoChunkExtendsMap(t *testing.T) {
	c, _ := DecodeStream()
	require.NoError(t, c.Apply(headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000})))

	micros, err := c.TempoMap().MicrosAt(1920)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), micros)

	tempo, err := EncodeTempoTrack([]TempoEvent{SetTempoAt(960, 250_000)})
	require.NoError(t, err)
	require.NoError(t, c.Apply(Chunk{Tag: TagTempo, Payload: tempo}))

	micros, err = c.TempoMap().MicrosAt(1920)
	require.NoError(t, err)
	require.Equal(t, int64(750_000), micros)
}

func TestStreamingTempoWarningReportedOnce(t *testing.T) {
	c, _ := DecodeStream()
	require.NoError(t, c.Apply(headChunk(t, Header{TicksPerBeat: 960, MicrosPerBeat: 500_000})))

	bad, err := EncodeTempoTrack([]TempoEvent{SetTempoAt(0, 0)})
	require.NoError(t, err)
	require.NoError(t, c.Apply(Chunk{Tag: TagTempo, Payload: bad}))
	require.Len(t, c.Warnings(), 1)
	require.Equal(t, WarnTempoValueIgnored, c.Warnings()[0].Code)

	// Later TEMP chunks rebuild the map over all accumulated events; the
	// earlier dropped value must not be reported again.
	good, err := EncodeTempoTrack([]TempoEvent{SetTempoAt(960, 750_000)})
	require.NoError(t, err)
	require.NoError(t, c.Apply(Chunk{Tag: TagTempo, Payload: good}))
	require.Len(t, c.Warnings(), 1)
}

func TestApplyRejectsChunkBeforeHead(t *testing.T) {
	c, _ := DecodeStream()
	err := c.Apply(Chunk{Tag: TagMeta, Payload: []byte{0}})
	require.ErrorIs(t, err, ErrMissingHeader)
}
