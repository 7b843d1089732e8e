package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dyluth/lstf/internal/printer"
	"github.com/dyluth/lstf/pkg/lstf"
)

var dumpEvents bool

var dumpCmd = &cobra.Command{
	Use:   "dump <track>",
	Short: "Dump a track's chunks and decoded events",
	Long: `Decode a track and print its chunk layout. With --events, also print
every decoded event per channel with its absolute tick and wall-clock
position.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpEvents, "events", false, "Also dump decoded events per channel")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
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
		return printer.Error("Failed to load track", err.Error(), nil)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "TAG", "BYTES")
	for i, chunk := range c.Chunks() {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			chunk.Tag,
			fmt.Sprintf("%d", len(chunk.Payload)),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !dumpEvents {
		return nil
	}

	tempo := c.TempoMap()
	wallclock := func(tick uint64) string {
		micros, err := tempo.MicrosAt(tick)
		if err != nil {
			return "-"
		}
		return (time.Duration(micros) * time.Microsecond).String()
	}

	for pad := lstf.Pad(0); pad < lstf.NumPads; pad++ {
		events := c.PadTrack(pad)
		if len(events) == 0 {
			continue
		}
		printer.Info("\nPad %s:\n", pad)
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("TICK", "TIME", "EVENT", "DETAIL")
		for _, ev := range events {
			table.Append([]string{
				fmt.Sprintf("%d", ev.Tick),
				wallclock(ev.Tick),
				ev.Op.String(),
				padEventDetail(ev),
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if groups := c.GroupTrack(); len(groups) > 0 {
		printer.Info("\nGroup:\n")
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("TICK", "TIME", "EVENT", "MASK", "DETAIL")
		for _, g := range groups {
			table.Append([]string{
				fmt.Sprintf("%d", g.Tick),
				wallclock(g.Tick),
				g.Op.String(),
				fmt.Sprintf("%03b", g.Mask&0x07),
				groupEventDetail(g),
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if audio := c.AudioTrack(); len(audio) > 0 {
		printer.Info("\nAudio:\n")
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("TICK", "TIME", "EVENT", "DETAIL")
		for _, ev := range audio {
			table.Append([]string{
				fmt.Sprintf("%d", ev.Tick),
				wallclock(ev.Tick),
				ev.Op.String(),
				audioEventDetail(ev),
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}

func padEventDetail(ev lstf.PadEvent) string {
	switch ev.Op {
	case lstf.OpSwitchColour:
		return fmt.Sprintf("%s transition=%dt hold=%dt", ev.Colour, ev.TransitionTicks, ev.HoldTicks)
	case lstf.OpFadeToColour:
		return fmt.Sprintf("%s ramp=%dt pulses=%d hold=%dt", ev.Colour, ev.RampTicks, ev.Pulses, ev.HoldTicks)
	case lstf.OpFlashColour:
		return fmt.Sprintf("%s on=%dt off=%dt pulses=%d hold=%dt", ev.Colour, ev.OnTicks, ev.OffTicks, ev.Pulses, ev.HoldTicks)
	case lstf.OpBlackout:
		return fmt.Sprintf("transition=%dt hold=%dt", ev.TransitionTicks, ev.HoldTicks)
	case lstf.OpSetDefaultTransition:
		return fmt.Sprintf("default=%dt", ev.DefaultTicks)
	case lstf.OpKeyframeState:
		return fmt.Sprintf("state=%d", ev.StateID)
	default:
		return fmt.Sprintf("%d raw bytes", len(ev.Raw))
	}
}

func groupEventDetail(g lstf.GroupEvent) string {
	switch g.Op {
	case lstf.OpSwitchColour, lstf.OpFadeToColour, lstf.OpFlashColour:
		detail := ""
		for p := lstf.Pad(0); p < lstf.NumPads; p++ {
			if g.Covers(p) {
				detail += fmt.Sprintf("%s=%s ", p, g.Colours[p])
			}
		}
		return detail + fmt.Sprintf("hold=%dt", g.HoldTicks)
	case lstf.OpBlackout:
		return fmt.Sprintf("transition=%dt hold=%dt", g.TransitionTicks, g.HoldTicks)
	default:
		return ""
	}
}

func audioEventDetail(ev lstf.AudioEvent) string {
	switch ev.Op {
	case lstf.OpPlaySample:
		return fmt.Sprintf("sample=%d fade_in=%dt fade_out=%dt", ev.SampleID, ev.FadeInTicks, ev.FadeOutTicks)
	case lstf.OpStopSample:
		return fmt.Sprintf("sample=%d fade_out=%dt", ev.SampleID, ev.FadeOutTicks)
	case lstf.OpSetGain:
		return fmt.Sprintf("gain=%d", ev.Gain)
	default:
		return fmt.Sprintf("%d raw bytes", len(ev.Raw))
	}
}
