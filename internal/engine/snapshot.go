package engine

import (
	"context"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// record is one member of the group for the duration of a call.
type record struct {
	handle   ir.Handle
	original ir.Identifier
	key      []float64
	number   int64
}

// snapshot enumerates the members once and, in sort mode, evaluates the
// sort field for each. It never changes the collection.
func (e *Engine) snapshot(ctx context.Context, group string, req Request) ([]record, error) {
	space := req.Kind.Space()
	handles, err := e.coll.Members(ctx, group, space)
	if err != nil {
		return nil, readError(group, space, "enumerate members", err)
	}

	recs := make([]record, 0, len(handles))
	components := -1
	for _, h := range handles {
		id, err := e.coll.Identifier(ctx, h)
		if err != nil {
			return nil, readError(group, space, "read identifier", err)
		}
		rec := record{handle: h, original: id}

		if req.SortBy != nil {
			loc, err := req.Kind.Locate(ctx, e.coll, h, req.Time)
			if err != nil {
				return nil, evaluationError(group, id, req.SortBy, err)
			}
			key, err := req.SortBy.Evaluate(ctx, loc)
			if err != nil {
				return nil, evaluationError(group, id, req.SortBy, err)
			}
			if components < 0 {
				components = len(key)
			} else if len(key) != components {
				return nil, evaluationError(group, id, req.SortBy,
					fmt.Errorf("got %d components, want %d", len(key), components))
			}
			rec.key = key
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func evaluationError(group string, id ir.Identifier, f Field, err error) *RenumberError {
	return &RenumberError{
		Code:       ErrCodeEvaluationFailed,
		Message:    fmt.Sprintf("evaluate field %q", f.Name()),
		Group:      group,
		Space:      id.Space,
		Identifier: id,
		Err:        err,
	}
}
