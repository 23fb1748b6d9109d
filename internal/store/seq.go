package store

import "sync/atomic"

// seqCounter numbers change log rows. Rows are ordered by seq, never by
// wall time, and the counter resumes after the highest seq on disk.
type seqCounter struct {
	last atomic.Int64
}

func newSeqCounter(last int64) *seqCounter {
	c := &seqCounter{}
	c.last.Store(last)
	return c
}

// next reserves the following sequence number.
func (c *seqCounter) next() int64 { return c.last.Add(1) }

// current is the last number reserved.
func (c *seqCounter) current() int64 { return c.last.Load() }
