package status

import (
	"sort"
	"sync"
	"time"
)

// State is the lifecycle position of one tracked operation.
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// Record is a point-in-time snapshot of one item's operation.
type Record struct {
	ItemID    string
	Operation string
	State     State
	Percent   int
	Message   string
	UpdatedAt time.Time
}

// Tracker holds progress records keyed by item id. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]Record), now: time.Now}
}

// Start registers a running operation, replacing any prior record.
func (t *Tracker) Start(itemID, operation string) {
	t.set(Record{ItemID: itemID, Operation: operation, State: StateRunning})
}

// Progress updates the percentage of a running operation.
func (t *Tracker) Progress(itemID string, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[itemID]
	if !ok || rec.State != StateRunning {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	rec.Percent = percent
	rec.UpdatedAt = t.now()
	t.records[itemID] = rec
}

// Complete marks an operation finished.
func (t *Tracker) Complete(itemID, message string) {
	t.finish(itemID, StateComplete, message, 100)
}

// Fail marks an operation failed.
func (t *Tracker) Fail(itemID, message string) {
	t.mu.RLock()
	percent := t.records[itemID].Percent
	t.mu.RUnlock()
	t.finish(itemID, StateFailed, message, percent)
}

// Snapshot returns the record for one item.
func (t *Tracker) Snapshot(itemID string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[itemID]
	return rec, ok
}

// List returns all records ordered by item id.
func (t *Tracker) List() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func (t *Tracker) set(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec.UpdatedAt = t.now()
	t.records[rec.ItemID] = rec
}

func (t *Tracker) finish(itemID string, state State, message string, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[itemID]
	if !ok {
		rec = Record{ItemID: itemID}
	}
	rec.State = state
	rec.Message = message
	rec.Percent = percent
	rec.UpdatedAt = t.now()
	t.records[itemID] = rec
}
