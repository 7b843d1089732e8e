package commands

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/lstf/internal/player"
	"github.com/dyluth/lstf/internal/printer"
	"github.com/dyluth/lstf/pkg/lstf"
)

var playLoop bool

var playCmd = &cobra.Command{
	Use:   "play <track>",
	Short: "Replay a track on a dry-run transport",
	Long: `Replay a track in wall-clock time, printing each resolved command as it
would be sent to the hardware. Interrupt with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "Loop the programme regardless of the header flag")
	rootCmd.AddCommand(playCmd)
}

// dryRunTransport prints commands instead of driving hardware.
type dryRunTransport struct {
	start time.Time
}

func (d *dryRunTransport) Send(pad lstf.Pad, cmd lstf.Command) error {
	printer.Info("%8s  %-7s %s  %-8s %s\n",
		time.Since(d.start).Round(time.Millisecond),
		pad, printer.Swatch(cmd.Colour.R, cmd.Colour.G, cmd.Colour.B),
		cmd.Primitive, commandDetail(cmd))
	return nil
}

func (d *dryRunTransport) SendAudio(state lstf.AudioState) error {
	if state.Active {
		printer.Info("%8s  audio   sample=%d gain=%d\n",
			time.Since(d.start).Round(time.Millisecond), state.SampleID, state.Gain)
	} else {
		printer.Info("%8s  audio   silent gain=%d\n",
			time.Since(d.start).Round(time.Millisecond), state.Gain)
	}
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
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

	opts := []player.Option{
		player.WithLogger(logger),
		player.WithEngineOptions(lstf.WithDeviceProfile(deviceProfile(cfg))),
	}
	if playLoop || cfg.Player.Loop {
		opts = append(opts, player.WithLoop(true))
	}

	transport := &dryRunTransport{start: time.Now()}
	p, err := player.New(c, transport, opts...)
	if err != nil {
		return printer.Error("Failed to start playback", err.Error(), nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printer.Step("Playing %s (session %s)\n", args[0], p.Session())
	if err := p.Run(ctx); err != nil {
		return printer.Error("Playback failed", err.Error(), nil)
	}
	printer.Success("Playback finished\n")
	return nil
}
