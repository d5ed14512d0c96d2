package kb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventRunStored EventType = iota
)

// Event is emitted to subscribers when a run is stored.
type Event struct {
	Type  EventType
	RunID string
}

// Run is one completed simulation: the inputs that reproduce it and the
// resulting series.
type Run struct {
	ID        string
	CreatedAt time.Time

	Star model.StarConfig
	Seed int64
	// Spots is the full population the series was produced from, explicit
	// then generated. Feeding it back as explicit spots with the same star
	// reproduces the identical series.
	Spots   []model.Spot
	Samples []model.Sample

	// CoverageWarning holds the coverage shortfall message when the run
	// proceeded in best-effort mode, empty otherwise.
	CoverageWarning string
}

// RunStore is an in-memory, thread-safe store for completed runs.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
	subs []func(Event)
	seq  int
}

// NewRunStore constructs an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// NextID allocates a fresh run identifier.
func (s *RunStore) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("run-%d", s.seq)
}

// Add stores a run. It returns an error if the ID already exists.
func (s *RunStore) Add(r *Run) error {
	s.mu.Lock()
	if _, exists := s.runs[r.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("run with ID %q already exists", r.ID)
	}
	s.runs[r.ID] = r
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Notify outside the lock so a slow subscriber cannot stall writers.
	for _, fn := range subs {
		fn(Event{Type: EventRunStored, RunID: r.ID})
	}
	return nil
}

// Get returns the run with the given ID, or false.
func (s *RunStore) Get(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}

// List returns all stored runs ordered by ID.
func (s *RunStore) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Subscribe registers a callback invoked after every stored run.
func (s *RunStore) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
