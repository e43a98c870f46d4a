package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-tab/logging"
	"github.com/RyanBlaney/sonido-tab/tablature/config"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded once per invocation, before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sonido-tab",
	Short: "Guitar tablature from recordings",
	Long: `sonido-tab listens to a WAV recording, detects the notes in it and
lists where each one can be played on a standard-tuned guitar.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "JSON config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides the config file)")
}

func loadConfig() error {
	cfg = config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	name := cfg.LogLevel
	if logLevel != "" {
		name = logLevel
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	return nil
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}
