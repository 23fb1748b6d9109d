package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// assignKeys computes the new number of every record and puts the records
// in processing order.
//
// Without a sort field the records keep their enumeration order and each
// number is shifted by the offset. With one they are stably sorted by key
// and numbered offset, offset+1, ...
func assignKeys(recs []record, req Request, group string, space ir.Space) error {
	if req.SortBy == nil {
		for i := range recs {
			n, ok := addInt64(recs[i].original.Number, req.Offset)
			if !ok {
				return overflowError(group, recs[i].original, req.Offset)
			}
			recs[i].number = n
		}
		return nil
	}

	slices.SortStableFunc(recs, func(a, b record) int {
		return compareKeys(a.key, b.key)
	})
	for i := range recs {
		n, ok := addInt64(req.Offset, int64(i))
		if !ok {
			return overflowError(group, recs[i].original, int64(i))
		}
		recs[i].number = n
	}
	return nil
}

// compareKeys orders two key vectors with the last component most
// significant, falling back to earlier components on ties.
func compareKeys(a, b []float64) int {
	for i := len(a) - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

func overflowError(group string, id ir.Identifier, delta int64) *RenumberError {
	return &RenumberError{
		Code:       ErrCodeInvalidRequest,
		Message:    fmt.Sprintf("identifier overflows when shifted by %d", delta),
		Group:      group,
		Space:      id.Space,
		Identifier: id,
	}
}
