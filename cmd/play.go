package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/icco/mej/internal/audio"
	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/history"
	"github.com/icco/mej/internal/session"
	"github.com/icco/mej/internal/telemetry"
	"github.com/icco/mej/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live through the sound device",
	Long: `Play generative music through the default sound device with an interactive TUI.

Mood knobs, presets, mode and speed can be changed while playing. In track mode
every finished track is saved as a WAV file and recorded in the history.

Example:
  mej play --preset starry --mode track
`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	o, err := sessionOptions()
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return err
	}
	logFile, err := tea.LogToFile(cfg.LogFile, "mej")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := log.Default()

	reporting, err := telemetry.Init(telemetry.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     releaseVersion,
	})
	if err != nil {
		logger.Printf("sentry: %v", err)
	}
	if reporting {
		defer telemetry.Flush()
	}

	var store history.Store
	if db, err := history.NewSQLiteStore(cfg.HistoryDB); err != nil {
		logger.Printf("history disabled: %v", err)
	} else {
		store = db
		defer db.Close()
	}
	archiver := history.NewArchiver(cfg.RecordDir, store, logger)
	defer archiver.Close()

	o.Logger = logger
	o.OnError = telemetry.Capture
	o.Subscribers = []func(conductor.Event){archiver.Handle, telemetry.Breadcrumb}

	if cfg.MQTTBroker != "" {
		pub, err := telemetry.DialMQTT(cfg.MQTTBroker, "mej-"+uuid.NewString())
		if err != nil {
			logger.Printf("event publishing disabled: %v", err)
		} else {
			sink := telemetry.NewSink(pub, cfg.MQTTTopic, logger)
			defer sink.Close()
			o.Subscribers = append(o.Subscribers, sink.Handle)
		}
	}

	s, err := session.New(clockwork.NewRealClock(), o)
	if err != nil {
		telemetry.Capture(err)
		return err
	}
	out, err := audio.Open(s.Engine)
	if err != nil {
		telemetry.Capture(err)
		return err
	}
	defer out.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		if err := s.Loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("loop: %v", err)
		}
	}()

	ui := tui.New(s.Conductor)
	s.Conductor.Subscribe(ui.HandleEvent)
	s.Conductor.Play()

	p := tea.NewProgram(ui, tea.WithAltScreen())

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		<-c
		p.Send(tea.Quit())
	}()

	_, err = p.Run()
	// Pausing closes any open take so it reaches the archiver.
	s.Conductor.Pause()
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
