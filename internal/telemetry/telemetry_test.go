package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/mood"
	"github.com/icco/mej/internal/pattern"
	"github.com/icco/mej/internal/preset"
	"github.com/icco/mej/internal/record"
	"github.com/icco/mej/internal/voice"
)

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	block    chan struct{}
	closed   bool
	fail     error
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.fail
}

func (p *fakePublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestNewMessage(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewMessage(conductor.Event{
		Kind:     conductor.EventTake,
		At:       at,
		Mode:     conductor.Track,
		Preset:   preset.Starry,
		Section:  pattern.Outro,
		Mood:     mood.State{Energy: 60, Complexity: 50, Atmosphere: 80, RhythmFocus: 30},
		Duration: 4 * time.Minute,
		Take:     &record.Take{ID: id},
		Complete: true,
	})

	assert.Equal(t, "take", m.Kind)
	assert.Equal(t, "track", m.Mode)
	assert.Equal(t, "starry", m.Preset)
	assert.Equal(t, "outro", m.Section)
	assert.Equal(t, 240.0, m.Duration)
	assert.Equal(t, id.String(), m.Take)
	assert.Equal(t, 80, m.Mood["atmosphere"])
	assert.True(t, m.At.Equal(at))
	assert.Empty(t, m.Error)
}

func TestNewMessageOmitsEmptySection(t *testing.T) {
	m := NewMessage(conductor.Event{Kind: conductor.EventFallback, Err: errors.New("boom")})
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"section"`)
	assert.Contains(t, string(b), `"error":"boom"`)
}

func TestSinkPublishesInOrder(t *testing.T) {
	pub := &fakePublisher{}
	s := NewSink(pub, "mej/events", quiet())
	s.Handle(conductor.Event{Kind: conductor.EventPlay})
	s.Handle(conductor.Event{Kind: conductor.EventPreset, Preset: preset.Demon})
	s.Close()
	s.Close()

	require.Len(t, pub.payloads, 2)
	assert.Equal(t, []string{"mej/events", "mej/events"}, pub.topics)
	assert.True(t, pub.closed)

	var m Message
	require.NoError(t, json.Unmarshal(pub.payloads[1], &m))
	assert.Equal(t, "preset", m.Kind)
	assert.Equal(t, "demon", m.Preset)
}

func TestSinkNeverBlocks(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	s := NewSink(pub, "t", quiet())

	done := make(chan struct{})
	go func() {
		for range queueSize * 3 {
			s.Handle(conductor.Event{Kind: conductor.EventSection})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle blocked on a stalled publisher")
	}
	assert.Positive(t, s.Dropped())

	close(pub.block)
	s.Close()
	assert.LessOrEqual(t, len(pub.payloads), queueSize+1)
}

func TestSinkSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{fail: errors.New("broker gone")}
	s := NewSink(pub, "t", quiet())
	s.Handle(conductor.Event{Kind: conductor.EventPlay})
	s.Handle(conductor.Event{Kind: conductor.EventPause})
	s.Close()
	assert.Len(t, pub.payloads, 2)
}

func TestInitWithoutDSNIsOff(t *testing.T) {
	ok, err := Init(Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptureAndBreadcrumbs(t *testing.T) {
	var mu sync.Mutex
	var sent []*sentry.Event
	require.NoError(t, initSentry(Options{Environment: "test"}, func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, ev)
		return nil
	}))
	sentry.ConfigureScope(func(s *sentry.Scope) { s.ClearBreadcrumbs() })

	Breadcrumb(conductor.Event{Kind: conductor.EventSection, Mode: conductor.Track, Section: pattern.Chorus})
	Capture(fmt.Errorf("kick: %w", voice.ErrTrigger))
	Capture(nil)

	mu.Lock()
	assert.Empty(t, sent)
	mu.Unlock()

	Capture(fmt.Errorf("%w: bad pattern", pattern.ErrGeneration))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Breadcrumbs, 2)
	assert.Equal(t, "section", sent[0].Breadcrumbs[0].Message)
	assert.Equal(t, "chorus", sent[0].Breadcrumbs[0].Data["section"])
	assert.Equal(t, "voice", sent[0].Breadcrumbs[1].Category)
	assert.NotEmpty(t, sent[0].Exception)
}
