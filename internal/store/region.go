package store

import "github.com/cmlibs/zinc-sub001/internal/engine"

// Region returns the store as a root region without children, so that
// engine.OffsetTree can shift its identifiers.
func (s *Store) Region() engine.Region {
	return storeRegion{s: s}
}

type storeRegion struct {
	s *Store
}

func (r storeRegion) Name() string                  { return "" }
func (r storeRegion) Collection() engine.Collection { return r.s }
func (r storeRegion) Children() []engine.Region     { return nil }
