package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dyluth/lstf/internal/config"
	"github.com/dyluth/lstf/internal/textcodec"
	"github.com/dyluth/lstf/pkg/lstf"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lstf",
	Short: "LSTF - Light show track inspector and player",
	Long: `lstf inspects, resolves and replays Light Show Track Format containers:
chunked binary programs that drive three light pads and an optional audio
channel against a shared tick timeline.

Tracks are accepted in raw binary form or in the LSTF-TEXT transport wrapper.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "lstf.yml", "Path to the configuration file")
}

// loadConfig reads the configuration, falling back to defaults when the file
// does not exist.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configPath)
}

// buildLogger constructs the CLI logger at the configured level.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// loadTrack reads a track file (binary or LSTF-TEXT) and decodes it.
func loadTrack(path string, cfg *config.Config, logger *zap.Logger) (*lstf.Container, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}
	binary, err := textcodec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("unwrapping %s: %w", path, err)
	}

	opts := []lstf.Option{lstf.WithLogger(logger)}
	if cfg.Decoder.LenientPalette {
		opts = append(opts, lstf.WithLenientPalette())
	}
	c, err := lstf.Decode(binary, opts...)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return c, nil
}

// deviceProfile builds the engine's device profile from configuration.
func deviceProfile(cfg *config.Config) lstf.DeviceProfile {
	return lstf.DeviceProfile{
		UnitMicros: *cfg.Device.UnitMicros,
		MaxUnit:    uint8(*cfg.Device.MaxUnit),
	}
}
