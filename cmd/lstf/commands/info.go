package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dyluth/lstf/internal/printer"
	"github.com/dyluth/lstf/pkg/lstf"
)

var infoCmd = &cobra.Command{
	Use:   "info <track>",
	Short: "Show a track's header, channels and metadata",
	Long: `Decode a track and summarise its contents: header fields, per-channel
event counts, the sample table, META annotations, and any decode warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c, err := loadTrack(args[0], cfg, logger)
	if err != nil {
		return printer.Error("Failed to load track", err.Error(), []string{
			"Check that the file is an LSTF container or LSTF-TEXT wrapper",
		})
	}

	h := c.Header()
	printer.Info("Format version: %d\n", lstf.FormatVersion)
	printer.Info("Ticks per beat: %d\n", h.TicksPerBeat)
	printer.Info("Initial tempo:  %d µs/beat (%.1f BPM)\n",
		h.MicrosPerBeat, 60_000_000/float64(h.MicrosPerBeat))
	printer.Info("Declared tracks: %d\n", h.TrackCount)
	printer.Info("Loopable: %v   Snapshots: %v\n\n", h.Loopable(), h.HasSnapshots())

	for pad := lstf.Pad(0); pad < lstf.NumPads; pad++ {
		printer.Info("Pad %-7s %d events\n", pad.String()+":", len(c.PadTrack(pad)))
	}
	printer.Info("Group:      %d events\n", len(c.GroupTrack()))
	printer.Info("Audio:      %d events\n", len(c.AudioTrack()))
	printer.Info("Snapshots:  %d\n", c.Snapshots().Len())

	samples := c.Samples()
	if len(samples) > 0 {
		printer.Info("\nSamples:\n")
		ids := make([]int, 0, len(samples))
		for id := range samples {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		for _, id := range ids {
			meta := samples[uint16(id)]
			printer.Info("  %5d  %-6s %6d Hz  %6d ticks  %s\n",
				meta.SampleID, meta.Encoding, meta.SampleRate, meta.LengthTicks, meta.Path)
		}
	}

	if meta := c.Meta(); len(meta) > 0 {
		printer.Info("\nMetadata:\n")
		for _, entry := range meta {
			printer.Info("  %s: %s\n", entry.Key, entry.Value)
		}
	}

	if warnings := c.Warnings(); len(warnings) > 0 {
		fmt.Println()
		for _, w := range warnings {
			printer.Warning("%s [%s]: %s\n", w.Code, w.Chunk, w.Message)
		}
	}
	return nil
}
