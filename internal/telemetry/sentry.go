// Package telemetry reports what the engine is doing: controller events go
// to an MQTT topic and contained failures go to Sentry.
package telemetry

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/pattern"
	"github.com/icco/mej/internal/voice"
)

const flushTimeout = 2 * time.Second

// Options configures failure reporting.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init starts the Sentry client. Without a DSN reporting stays off and Init
// returns false.
func Init(o Options) (bool, error) {
	if o.DSN == "" {
		return false, nil
	}
	if err := initSentry(o, nil); err != nil {
		return false, err
	}
	return true, nil
}

func initSentry(o Options, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:              o.DSN,
		Environment:      o.Environment,
		Release:          "mej@" + o.Release,
		Debug:            o.Environment == "development",
		AttachStacktrace: true,
		BeforeSend:       beforeSend,
	})
}

// Capture reports a contained failure. Voice trigger failures are frequent
// and low value, so they only leave a breadcrumb.
func Capture(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, voice.ErrTrigger) {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "voice",
			Message:  err.Error(),
			Level:    sentry.LevelWarning,
		})
		return
	}
	sentry.CaptureException(err)
}

// Breadcrumb records a controller event. It has the signature of a
// controller subscriber.
func Breadcrumb(ev conductor.Event) {
	data := map[string]interface{}{
		"mode":   ev.Mode.String(),
		"preset": ev.Preset.String(),
		"mood":   ev.Mood.String(),
	}
	if ev.Section != pattern.SectionNone {
		data["section"] = ev.Section.String()
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "default",
		Category:  "conductor",
		Message:   ev.Kind.String(),
		Data:      data,
		Level:     sentry.LevelInfo,
		Timestamp: ev.At,
	})
}

// Flush waits for queued reports.
func Flush() {
	sentry.Flush(flushTimeout)
}
