package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// apply relabels every record in processing order inside one batch bracket.
//
// When another member holds a record's new identifier, that member is first
// moved to a spare identifier above every new number; it reaches its own
// new number when its record comes up. Validation guarantees the holder is
// a member.
//
// Cancellation of ctx is ignored from here on: once the first identifier
// moves, the call runs to completion or fails fatally.
func (e *Engine) apply(ctx context.Context, group string, space ir.Space, recs []record, report *Report) (err error) {
	ctx = context.WithoutCancel(ctx)
	if err := e.coll.BeginBatch(ctx, space); err != nil {
		return readError(group, space, "begin batch", err)
	}
	defer func() {
		if endErr := e.coll.EndBatch(ctx, space); endErr != nil && err == nil {
			err = e.mutationFailure(group, ir.Identifier{}, space, "end batch", endErr)
		}
	}()

	spare := &spareCursor{next: recs[len(recs)-1].number, limit: e.probeLimit}
	if spare.next == math.MaxInt64 {
		spare.exhausted = true
	} else {
		spare.next++
	}

	for _, rec := range recs {
		id := ir.ID(space, rec.number)
		holder, found, lookupErr := e.coll.Lookup(ctx, id)
		if lookupErr != nil {
			return e.mutationFailure(group, id, space, "look up identifier", lookupErr)
		}
		if found && holder == rec.handle {
			continue
		}
		if found {
			to, err := spare.take(ctx, e.coll, space)
			if err != nil {
				return e.mutationFailure(group, id, space, "find spare identifier", err)
			}
			if err := e.coll.ChangeIdentifier(ctx, holder, to); err != nil {
				return e.mutationFailure(group, to, space, "move holder to spare identifier", err)
			}
			report.Relocated++
			e.logger.Debug("renumber: relocated holder", "from", id, "to", to)
		}
		if err := e.coll.ChangeIdentifier(ctx, rec.handle, id); err != nil {
			return e.mutationFailure(group, id, space, "change identifier", err)
		}
		if rec.original != id {
			report.Relabelled++
			report.Changes = append(report.Changes, ir.Change{Handle: rec.handle, From: rec.original, To: id})
		}
	}
	return nil
}

func (e *Engine) mutationFailure(group string, id ir.Identifier, space ir.Space, what string, err error) *RenumberError {
	e.logger.Error("renumber: mutation failed, collection may be partially renumbered",
		"group", group, "space", space, "identifier", id, "error", err)
	return &RenumberError{
		Code:       ErrCodeMutationFailure,
		Message:    what,
		Group:      group,
		Space:      space,
		Identifier: id,
		Err:        err,
	}
}

// spareCursor hands out unused identifiers in increasing order.
type spareCursor struct {
	next      int64
	limit     int
	exhausted bool
}

// take returns the next identifier nobody holds, examining at most limit
// identifiers.
func (s *spareCursor) take(ctx context.Context, c Collection, space ir.Space) (ir.Identifier, error) {
	for probes := 0; ; probes++ {
		if s.exhausted {
			return ir.Identifier{}, fmt.Errorf("identifier space exhausted")
		}
		if probes >= s.limit {
			return ir.Identifier{}, fmt.Errorf("no spare identifier among %d probed", s.limit)
		}
		id := ir.ID(space, s.next)
		_, found, err := c.Lookup(ctx, id)
		if err != nil {
			return ir.Identifier{}, err
		}
		if s.next == math.MaxInt64 {
			s.exhausted = true
		} else {
			s.next++
		}
		if !found {
			return id, nil
		}
	}
}
