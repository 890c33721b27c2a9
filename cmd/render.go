package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/history"
	"github.com/icco/mej/internal/session"
	"github.com/icco/mej/internal/telemetry"
)

var (
	renderDuration time.Duration
	renderOut      string
	renderTracks   bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render to a WAV file without a sound device",
	Long: `Render generative music offline in virtual time and write it as a WAV file.

With the same seed, preset and mode the output is identical on every run.
With --tracks, each finished track in track mode is also saved and recorded
in the history, as it would be when playing live.

Example:
  mej render --duration 5m --mode track --seed 7 --out session.wav
`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().DurationVarP(&renderDuration, "duration", "d", time.Minute, "Length of audio to render")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "mej.wav", "Output WAV file")
	renderCmd.Flags().BoolVar(&renderTracks, "tracks", false, "Also archive finished tracks (track mode)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	o, err := sessionOptions()
	if err != nil {
		return err
	}
	o.OnError = telemetry.Capture

	if renderTracks {
		var store history.Store
		if db, err := history.NewSQLiteStore(cfg.HistoryDB); err != nil {
			fmt.Fprintf(os.Stderr, "history disabled: %v\n", err)
		} else {
			store = db
			defer db.Close()
		}
		archiver := history.NewArchiver(cfg.RecordDir, store, nil)
		defer archiver.Close()
		o.Subscribers = []func(conductor.Event){archiver.Handle}
	}

	take, err := session.Render(o, renderDuration)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(renderOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(renderOut)
	if err != nil {
		return err
	}
	if err := take.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", renderOut, err)
	}

	fmt.Printf("Wrote %s (%s, %s, %s, peak %.2f)\n", renderOut, take.Duration().Round(time.Millisecond), o.Preset, o.Mode, take.Peak())
	return nil
}
