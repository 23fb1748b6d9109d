package testutil

import (
	"sync"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// Recorder collects delivered change sets.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Recorder struct {
	mu   sync.Mutex
	sets []ir.ChangeSet
}

// Record stores cs. Pass it to Subscribe.
func (r *Recorder) Record(cs ir.ChangeSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = append(r.sets, cs)
}

// Sets returns every change set received so far.
func (r *Recorder) Sets() []ir.ChangeSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ir.ChangeSet, len(r.sets))
	copy(out, r.sets)
	return out
}

// Reset forgets everything received.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = nil
}
