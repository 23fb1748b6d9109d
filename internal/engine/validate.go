package engine

import (
	"context"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// validate checks every record before anything is changed: each new number
// is positive, larger than the one before it, and not held by an entity
// outside the group.
//
// The three checks run together per record rather than as three passes.
// Offset and sort numbering assign strictly increasing numbers, so only a
// leading run can be non-positive and no record fails monotonicity; the
// first error reported is the one separate passes would report.
func (e *Engine) validate(ctx context.Context, group string, space ir.Space, recs []record) error {
	var prev int64
	for i, rec := range recs {
		id := ir.ID(space, rec.number)
		if rec.number <= 0 {
			return &RenumberError{
				Code:       ErrCodeNonPositiveIdentifier,
				Message:    fmt.Sprintf("%s would become %d", rec.original, rec.number),
				Group:      group,
				Space:      space,
				Identifier: id,
			}
		}
		if i > 0 && rec.number <= prev {
			return &RenumberError{
				Code:       ErrCodeNonMonotonicIdentifiers,
				Message:    fmt.Sprintf("%s would become %d after %d", rec.original, rec.number, prev),
				Group:      group,
				Space:      space,
				Identifier: id,
			}
		}
		prev = rec.number

		holder, found, err := e.coll.Lookup(ctx, id)
		if err != nil {
			return readError(group, space, "look up identifier", err)
		}
		if !found || holder == rec.handle {
			continue
		}
		member, err := e.coll.IsMember(ctx, holder, group)
		if err != nil {
			return readError(group, space, "check membership", err)
		}
		if !member {
			return &RenumberError{
				Code:       ErrCodeOutsideCollision,
				Message:    fmt.Sprintf("%s is held by an entity outside the group", id),
				Group:      group,
				Space:      space,
				Identifier: id,
			}
		}
	}
	return nil
}
