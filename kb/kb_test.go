package kb

import (
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/stellar-activity-simulator/model"
)

func testRun(id string) *Run {
	return &Run{
		ID:        id,
		CreatedAt: time.Now(),
		Star:      model.StarConfig{GridSize: 100, Period: 25, Temperature: 5778},
		Seed:      42,
		Spots:     []model.Spot{{ID: "spot-0", Latitude: 10, FillFactor: 0.01}},
		Samples:   []model.Sample{{Time: 0, Flux: 0.99, RV: 1.2, Valid: true}},
	}
}

func TestRunStore_AddGet(t *testing.T) {
	s := NewRunStore()
	run := testRun("run-1")
	if err := s.Add(run); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := s.Get("run-1")
	if !ok {
		t.Fatal("stored run not found")
	}
	if got.Seed != 42 || len(got.Samples) != 1 {
		t.Errorf("got %+v", got)
	}

	if _, ok := s.Get("run-404"); ok {
		t.Error("Get returned a run for an unknown ID")
	}
}

func TestRunStore_DuplicateID(t *testing.T) {
	s := NewRunStore()
	if err := s.Add(testRun("run-1")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(testRun("run-1")); err == nil {
		t.Error("duplicate ID accepted")
	}
}

func TestRunStore_ListOrdered(t *testing.T) {
	s := NewRunStore()
	for _, id := range []string{"run-c", "run-a", "run-b"} {
		if err := s.Add(testRun(id)); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("got %d runs, want 3", len(list))
	}
	want := []string{"run-a", "run-b", "run-c"}
	for i, r := range list {
		if r.ID != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
}

func TestRunStore_NextID(t *testing.T) {
	s := NewRunStore()
	if id := s.NextID(); id != "run-1" {
		t.Errorf("first ID = %s, want run-1", id)
	}
	if id := s.NextID(); id != "run-2" {
		t.Errorf("second ID = %s, want run-2", id)
	}
}

func TestRunStore_Subscribe(t *testing.T) {
	s := NewRunStore()

	var mu sync.Mutex
	var events []Event
	s.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	if err := s.Add(testRun("run-1")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(testRun("run-2")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventRunStored || events[0].RunID != "run-1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].RunID != "run-2" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestRunStore_ConcurrentNextID(t *testing.T) {
	s := NewRunStore()

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.NextID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("got %d unique IDs, want %d", len(seen), n)
	}
}
