package history

import (
	"log"
	"sync"

	"github.com/icco/mej/internal/conductor"
)

// Archiver writes finished takes to disk and records them in a Store. It
// works on its own goroutine so the engine loop never waits on the disk.
type Archiver struct {
	dir    string
	store  Store
	logger *log.Logger
	queue  chan conductor.Event
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	saved []Track
}

// NewArchiver saves takes under dir. store may be nil.
func NewArchiver(dir string, store Store, logger *log.Logger) *Archiver {
	if logger == nil {
		logger = log.Default()
	}
	a := &Archiver{
		dir:    dir,
		store:  store,
		logger: logger,
		queue:  make(chan conductor.Event, 8),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Handle is a controller subscriber; it only looks at take events. A take
// that does not fit in the queue is logged and dropped.
func (a *Archiver) Handle(ev conductor.Event) {
	if ev.Kind != conductor.EventTake || ev.Take == nil {
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.logger.Printf("history: archive queue full, dropping take %s", ev.Take.ID)
	}
}

// Saved lists tracks archived so far.
func (a *Archiver) Saved() []Track {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Track(nil), a.saved...)
}

// Close waits for queued takes to be written.
func (a *Archiver) Close() {
	a.once.Do(func() {
		close(a.queue)
		<-a.done
	})
}

func (a *Archiver) run() {
	defer close(a.done)
	for ev := range a.queue {
		a.archive(ev)
	}
}

func (a *Archiver) archive(ev conductor.Event) {
	take := ev.Take
	path, err := take.Save(a.dir, ev.Preset.String())
	if err != nil {
		a.logger.Printf("history: save take %s: %v", take.ID, err)
		return
	}

	t := Track{
		ID:       take.ID,
		Preset:   ev.Preset.String(),
		Mode:     ev.Mode.String(),
		Started:  take.Started,
		Duration: take.Duration(),
		Complete: ev.Complete,
		File:     path,
	}
	if a.store != nil {
		if err := a.store.Add(t); err != nil {
			a.logger.Printf("history: %v", err)
		}
	}

	a.mu.Lock()
	a.saved = append(a.saved, t)
	a.mu.Unlock()
	a.logger.Printf("history: saved %s", path)
}
