package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/config"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/session"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

var (
	cfg *config.Config

	presetName string
	modeName   string
	seed       uint64
)

var rootCmd = &cobra.Command{
	Use:   "mej",
	Short: "A generative ambient and electronic music engine",
	Long: `mej is a generative music engine that plays endless, evolving ambient and
electronic music from four mood knobs and a handful of presets.

It can play live through the sound device with a terminal UI, render to WAV
files offline, and keep a history of the tracks it has recorded.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("preset") {
			presetName = cfg.Preset
		}
		if !cmd.Flags().Changed("mode") {
			modeName = cfg.Mode
		}
		if !cmd.Flags().Changed("seed") {
			seed = cfg.Seed
		}
		return nil
	},
}

func init() {
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVarP(&presetName, "preset", "p", "flow", "Preset: starry, flow, glitch or demon")
	rootCmd.PersistentFlags().StringVarP(&modeName, "mode", "m", "continuous", "Mode: continuous or track")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sessionOptions turns the shared flags into session options. An unknown
// preset name falls back to the default preset with a warning.
func sessionOptions() (session.Options, error) {
	mode, err := conductor.ParseMode(modeName)
	if err != nil {
		return session.Options{}, err
	}
	id, ok := preset.Parse(presetName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown preset %q, using %s\n", presetName, id)
	}
	return session.Options{
		Preset: id,
		Mode:   mode,
		Seed:   seed,
		Volume: cfg.Volume,
	}, nil
}
