package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/icco/mej/internal/conductor"
	"github.com/icco/mej/internal/pattern"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
	queueSize      = 64
)

// Publisher sends one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

// Message is the JSON payload published for a controller event.
type Message struct {
	Kind     string         `json:"kind"`
	At       time.Time      `json:"at"`
	Mode     string         `json:"mode"`
	Preset   string         `json:"preset"`
	Section  string         `json:"section,omitempty"`
	Mood     map[string]int `json:"mood"`
	Duration float64        `json:"duration_s,omitempty"`
	Take     string         `json:"take,omitempty"`
	Complete bool           `json:"complete,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewMessage flattens ev for publishing.
func NewMessage(ev conductor.Event) Message {
	m := Message{
		Kind:     ev.Kind.String(),
		At:       ev.At.UTC(),
		Mode:     ev.Mode.String(),
		Preset:   ev.Preset.String(),
		Duration: ev.Duration.Seconds(),
		Complete: ev.Complete,
		Mood: map[string]int{
			"energy":       ev.Mood.Energy,
			"complexity":   ev.Mood.Complexity,
			"atmosphere":   ev.Mood.Atmosphere,
			"rhythm_focus": ev.Mood.RhythmFocus,
		},
	}
	if ev.Section != pattern.SectionNone {
		m.Section = ev.Section.String()
	}
	if ev.Take != nil {
		m.Take = ev.Take.ID.String()
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return m
}

// Sink publishes controller events from its own goroutine. Handle never
// blocks: when the queue is full the event is dropped and counted.
type Sink struct {
	pub     Publisher
	topic   string
	logger  *log.Logger
	queue   chan Message
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// NewSink starts publishing to topic through pub.
func NewSink(pub Publisher, topic string, logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}
	s := &Sink{
		pub:    pub,
		topic:  topic,
		logger: logger,
		queue:  make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Handle queues ev. It has the signature of a controller subscriber.
func (s *Sink) Handle(ev conductor.Event) {
	select {
	case s.queue <- NewMessage(ev):
	default:
		s.dropped.Add(1)
	}
}

// Dropped is the number of events discarded because the queue was full.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close drains the queue and closes the publisher.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.queue)
		<-s.done
		s.pub.Close()
	})
}

func (s *Sink) run() {
	defer close(s.done)
	for m := range s.queue {
		payload, err := json.Marshal(m)
		if err != nil {
			s.logger.Printf("telemetry: encode %s: %v", m.Kind, err)
			continue
		}
		if err := s.pub.Publish(s.topic, payload); err != nil {
			s.logger.Printf("telemetry: publish %s: %v", m.Kind, err)
		}
	}
}

// MQTTPublisher keeps one broker connection for the life of the sink.
type MQTTPublisher struct {
	client pahomqtt.Client
}

// DialMQTT connects to broker.
func DialMQTT(broker, clientID string) (*MQTTPublisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	return &MQTTPublisher{client: client}, nil
}

func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	tok := p.client.Publish(topic, 0, false, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", tok.Error())
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
