package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/lstf/internal/printer"
	"github.com/dyluth/lstf/internal/tickspec"
	"github.com/dyluth/lstf/pkg/lstf"
)

var (
	resolveAt  string
	resolvePad int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <track>",
	Short: "Resolve channel state at a position",
	Long: `Query the resolution engine for the effective hardware command on each
pad (and the audio channel) at a given position.

The position accepts ticks ("960t") or a wall-clock offset ("1.5s", "2m3s").`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAt, "at", "0t", "Position to resolve (ticks like '960t' or a duration like '1.5s')")
	resolveCmd.Flags().IntVar(&resolvePad, "pad", -1, "Resolve a single pad (0=centre, 1=left, 2=right); default all")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	tick, err := tickspec.Parse(resolveAt, c.TempoMap())
	if err != nil {
		return printer.Error("Invalid position", err.Error(), []string{
			"Use a tick count like '960t' or a duration like '1.5s'",
		})
	}

	engine := lstf.NewEngine(c, lstf.WithDeviceProfile(deviceProfile(cfg)))
	micros, err := engine.MicrosAt(tick)
	if err != nil {
		return err
	}
	printer.Info("Position: tick %d (%s)\n\n", tick, time.Duration(micros)*time.Microsecond)

	pads := []lstf.Pad{lstf.PadCentre, lstf.PadLeft, lstf.PadRight}
	if resolvePad >= 0 {
		if resolvePad >= lstf.NumPads {
			return printer.Error("Invalid pad", fmt.Sprintf("pad must be 0, 1 or 2, got %d", resolvePad), nil)
		}
		pads = []lstf.Pad{lstf.Pad(resolvePad)}
	}

	for _, pad := range pads {
		state, err := engine.PadStateAt(pad, tick)
		if err != nil {
			return printer.Error("Resolution failed", err.Error(), nil)
		}
		printer.Info("%-7s %s  %-8s %-11s %s\n",
			pad, printer.Swatch(state.Colour.R, state.Colour.G, state.Colour.B),
			state.Primitive, state.Phase, commandDetail(state))
	}

	audio, err := engine.AudioStateAt(tick)
	if err != nil {
		return err
	}
	if audio.Active {
		printer.Info("audio   sample=%d position=%dt gain=%d\n", audio.SampleID, audio.PositionTicks, audio.Gain)
	} else {
		printer.Info("audio   silent gain=%d\n", audio.Gain)
	}
	return nil
}

func commandDetail(cmd lstf.Command) string {
	switch cmd.Primitive {
	case lstf.PrimitiveFade:
		return fmt.Sprintf("pulse_time=%d pulses=%d hold=%d", cmd.PulseTime, cmd.PulseCount, cmd.Hold)
	case lstf.PrimitiveFlash:
		return fmt.Sprintf("on=%d off=%d pulses=%d hold=%d", cmd.OnLength, cmd.OffLength, cmd.PulseCount, cmd.Hold)
	case lstf.PrimitiveSwitch:
		return fmt.Sprintf("hold=%d", cmd.Hold)
	default:
		return ""
	}
}
