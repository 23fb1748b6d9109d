package ir

// Change records one relabel of an entity.
type Change struct {
	Handle Handle
	From   Identifier
	To     Identifier
}

// ChangeSet is what subscribers receive: every change made inside one
// outermost batch bracket of a Space, in the order they were made.
type ChangeSet struct {
	Space   Space
	BatchID string
	Changes []Change
}

// Net collapses the set to one change per handle, from its first From to its
// last To, dropping handles that ended where they started. Order follows the
// first change of each handle.
func (cs ChangeSet) Net() []Change {
	index := make(map[Handle]int, len(cs.Changes))
	var net []Change
	for _, c := range cs.Changes {
		if i, ok := index[c.Handle]; ok {
			net[i].To = c.To
			continue
		}
		index[c.Handle] = len(net)
		net = append(net, c)
	}
	out := net[:0]
	for _, c := range net {
		if c.From != c.To {
			out = append(out, c)
		}
	}
	return out
}
