// Package commands implements the acai command-line interface.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acaihq/acai/config"
	"github.com/acaihq/acai/datadir"
)

var (
	// Global flags.
	flagModel       string
	flagTemperature float64
	flagMaxTokens   int
	flagTopP        float64

	// Loaded configuration, available to all subcommands.
	cfg  *config.Config
	data *datadir.DataDir
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "acai",
	Short: "AI assistant for the command line",
	Long: `acai is a command-line AI assistant. It drives a multi-turn
conversation with a model API and can run local tools (such as a shell)
on the model's behalf, streaming structured events describing the
interaction.

Examples:
  # One-shot instruction with tool use
  acai instruct -p "how many Go files are in this repo?"

  # Structured line-delimited output for scripting
  acai instruct -p "list failing tests" --stream-json

  # Pipe mode: stdin as context
  git diff | acai pipe "write a commit message for this change"
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if flagModel != "" {
			cfg.Model = flagModel
		}
		if cmd.Flags().Changed("temperature") {
			cfg.Temperature = flagTemperature
		}
		if cmd.Flags().Changed("max-tokens") {
			cfg.MaxTokens = flagMaxTokens
		}
		if cmd.Flags().Changed("top-p") {
			cfg.TopP = flagTopP
		}

		data, err = datadir.New(cfg.DataDir)
		if err != nil {
			return err
		}

		return setupLogging(cfg, data)
	},
}

// Execute runs the root command. The context carries interrupt cancellation
// into running sessions via cmd.Context().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model to use")
	rootCmd.PersistentFlags().Float64Var(&flagTemperature, "temperature", 0.2, "sampling temperature")
	rootCmd.PersistentFlags().IntVar(&flagMaxTokens, "max-tokens", 0, "maximum output tokens")
	rootCmd.PersistentFlags().Float64Var(&flagTopP, "top-p", 0, "top-p sampling value")

	rootCmd.AddCommand(instructCmd)
	rootCmd.AddCommand(pipeCmd)
}

// setupLogging configures the process-wide slog logger. Logs go to stderr,
// or to the configured log file when one is set.
func setupLogging(cfg *config.Config, data *datadir.DataDir) error {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		path := cfg.LogFile
		if path == "auto" {
			path = data.LogPath()
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		w = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// stdinContext reads piped stdin, if any. Returns "" on a terminal.
func stdinContext() string {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return string(data)
}
