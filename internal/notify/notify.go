// Package notify implements the batch bracket shared by the collections.
//
// A Bracket buffers the changes recorded while a Space is inside one or more
// Begin/End pairs and hands them to subscribers as a single ChangeSet when
// the outermost End closes. Changes recorded outside any bracket are
// delivered immediately, one ChangeSet each.
package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// ErrUnbalanced is returned by End without a matching Begin.
var ErrUnbalanced = errors.New("batch end without matching begin")

// Subscriber receives change sets. It is called without any lock held and
// may read from the collection, but must not relabel inside the callback.
type Subscriber func(ir.ChangeSet)

// BatchIDFunc names a batch when its first Begin opens it.
type BatchIDFunc func() string

// Bracket tracks per-space nesting depth and pending changes.
//
// Thread-safety: all methods are safe for concurrent use. Subscribers are
// invoked on the goroutine that closes the batch.
type Bracket struct {
	mu      sync.Mutex
	depth   map[ir.Space]int
	batch   map[ir.Space]string
	pending map[ir.Space][]ir.Change
	subs    []Subscriber
	newID   BatchIDFunc
}

// New creates an empty bracket. newID may be nil, in which case batches
// carry no ID.
func New(newID BatchIDFunc) *Bracket {
	if newID == nil {
		newID = func() string { return "" }
	}
	return &Bracket{
		depth:   make(map[ir.Space]int),
		batch:   make(map[ir.Space]string),
		pending: make(map[ir.Space][]ir.Change),
		newID:   newID,
	}
}

// Subscribe registers fn for every delivered change set.
func (b *Bracket) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Begin opens (or nests) a batch for space s and returns its batch ID.
func (b *Bracket) Begin(s ir.Space) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.depth[s] == 0 {
		b.batch[s] = b.newID()
	}
	b.depth[s]++
	return b.batch[s]
}

// Active reports whether space s is inside a batch, and its batch ID.
func (b *Bracket) Active(s ir.Space) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.depth[s] == 0 {
		return "", false
	}
	return b.batch[s], true
}

// Stamp returns the batch ID a change to space s made now belongs to: the
// open batch's ID, or a fresh one when s is outside any batch.
func (b *Bracket) Stamp(s ir.Space) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.depth[s] > 0 {
		return b.batch[s]
	}
	return b.newID()
}

// Record notes a change stamped with batchID. Inside a batch it is
// buffered; outside it is delivered at once.
func (b *Bracket) Record(batchID string, c ir.Change) {
	s := c.To.Space
	b.mu.Lock()
	if b.depth[s] > 0 {
		b.pending[s] = append(b.pending[s], c)
		b.mu.Unlock()
		return
	}
	subs := b.subs
	b.mu.Unlock()
	deliver(subs, ir.ChangeSet{Space: s, BatchID: batchID, Changes: []ir.Change{c}})
}

// End closes one level of the batch for space s. When the outermost level
// closes, pending changes (if any) are delivered as one ChangeSet.
func (b *Bracket) End(s ir.Space) error {
	b.mu.Lock()
	if b.depth[s] == 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnbalanced, s)
	}
	b.depth[s]--
	if b.depth[s] > 0 {
		b.mu.Unlock()
		return nil
	}
	changes := b.pending[s]
	id := b.batch[s]
	delete(b.pending, s)
	delete(b.batch, s)
	delete(b.depth, s)
	subs := b.subs
	b.mu.Unlock()

	if len(changes) > 0 {
		deliver(subs, ir.ChangeSet{Space: s, BatchID: id, Changes: changes})
	}
	return nil
}

func deliver(subs []Subscriber, cs ir.ChangeSet) {
	for _, fn := range subs {
		fn(cs)
	}
}
