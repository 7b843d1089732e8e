package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/lstf/internal/printer"
	"github.com/dyluth/lstf/internal/textcodec"
	"github.com/dyluth/lstf/pkg/lstf"
)

var (
	genDemoOut  string
	genDemoText bool
)

var genDemoCmd = &cobra.Command{
	Use:   "gen-demo",
	Short: "Generate a demonstration track",
	Long: `Write a small demonstration track exercising every channel type: a flash
and switch on the centre pad, a fade on the right pad, a group finale, an
audio cue with sample metadata, a palette override, a snapshot checkpoint
and META annotations.`,
	RunE: runGenDemo,
}

func init() {
	genDemoCmd.Flags().StringVar(&genDemoOut, "out", "demo.lstf", "Output file path")
	genDemoCmd.Flags().BoolVar(&genDemoText, "text", false, "Write the LSTF-TEXT wrapper instead of raw binary")
	rootCmd.AddCommand(genDemoCmd)
}

func runGenDemo(cmd *cobra.Command, args []string) error {
	data, err := buildDemoTrack()
	if err != nil {
		return printer.Error("Failed to build demo track", err.Error(), nil)
	}
	if genDemoText {
		data = textcodec.Encode(data)
	}
	if err := os.WriteFile(genDemoOut, data, 0644); err != nil {
		return printer.Error("Failed to write demo track", err.Error(), nil)
	}
	printer.Success("Wrote %s (%d bytes)\n", genDemoOut, len(data))
	return nil
}

// buildDemoTrack assembles the demonstration container: one beat of flashing
// red on the centre pad, a long green fade on the right pad, then a group
// blue finale, at 120 BPM with 960 ticks per beat.
func buildDemoTrack() ([]byte, error) {
	chunks := []lstf.Chunk{{
		Tag: lstf.TagHead,
		Payload: lstf.EncodeHeader(lstf.Header{
			TicksPerBeat:  960,
			MicrosPerBeat: 500_000,
			TrackCount:    4,
			Flags:         lstf.FlagLoopable | lstf.FlagHasSnapshots,
		}),
	}}

	palette, err := lstf.EncodePaletteOverride([]lstf.PaletteEntry{
		{Index: 4, Colour: lstf.RGB{R: 0xFF}},
		{Index: 14, Colour: lstf.RGB{G: 0xFF}},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagPalette, Payload: palette})

	pad0, err := lstf.EncodePadTrack([]lstf.PadEvent{
		{Tick: 0, Op: lstf.OpFlashColour, OnTicks: 120, OffTicks: 120, Pulses: 4, Colour: lstf.PaletteRef(4), HoldTicks: 240},
		{Tick: 960, Op: lstf.OpSwitchColour, Colour: lstf.PaletteRef(0)},
		{Tick: 960, Op: lstf.OpKeyframeState, StateID: 1},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagPad0, Payload: pad0})

	pad2, err := lstf.EncodePadTrack([]lstf.PadEvent{
		{Tick: 0, Op: lstf.OpFadeToColour, RampTicks: 480, Pulses: 1, Colour: lstf.PaletteRef(14), HoldTicks: 960},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagPad2, Payload: pad2})

	group, err := lstf.EncodeGroupTrack([]lstf.GroupEvent{
		{
			Tick: 1920, Op: lstf.OpSwitchColour, Mask: 0b111, TransitionTicks: 480,
			Colours: [lstf.NumPads]lstf.ColourSpec{
				lstf.LiteralColour(0, 0, 0xFF),
				lstf.LiteralColour(0, 0, 0xFF),
				lstf.LiteralColour(0, 0, 0xFF),
			},
			HoldTicks: 960,
		},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagGroup, Payload: group})

	samples, err := lstf.EncodeSampleTable([]lstf.SampleMeta{{
		SampleID:    1,
		Encoding:    lstf.SampleEncodingPCM16,
		SampleRate:  44_100,
		LengthTicks: 1920,
		Path:        "samples/chime.pcm",
	}})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagSamples, Payload: samples})

	audio, err := lstf.EncodeAudioTrack([]lstf.AudioEvent{
		{Tick: 0, Op: lstf.OpPlaySample, SampleID: 1, FadeInTicks: 96},
		{Tick: 1920, Op: lstf.OpStopSample, SampleID: 1, FadeOutTicks: 192},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagAudio, Payload: audio})

	// Checkpoint at the end of the first beat: centre settled on black,
	// right pad holding green, left pad untouched.
	snapshot, err := lstf.EncodeSnapshot(lstf.Snapshot{
		StateID:    1,
		Tick:       960,
		WallMicros: 500_000,
		Pads: [lstf.NumPads]lstf.Command{
			{Primitive: lstf.PrimitiveSwitch},
			{},
			{Primitive: lstf.PrimitiveSwitch, Colour: lstf.RGB{G: 0xFF}},
		},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagState, Payload: snapshot})

	meta, err := lstf.EncodeMeta([]lstf.MetaEntry{
		{Key: "title", Value: "demo sequence"},
		{Key: "generator", Value: "lstf gen-demo"},
	})
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, lstf.Chunk{Tag: lstf.TagMeta, Payload: meta})

	return lstf.EncodeChunks(chunks)
}
