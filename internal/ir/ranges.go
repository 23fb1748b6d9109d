package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Range is an inclusive identifier range.
type Range struct {
	Start int64
	Stop  int64
}

// Ranges is a sorted, non-overlapping, non-adjacent set of identifier ranges.
type Ranges []Range

// ParseRanges parses a comma separated list of numbers and inclusive
// "start..stop" ranges, e.g. "1..5,9,12..20". Whitespace is ignored.
// The result is sorted and merged.
func ParseRanges(s string) (Ranges, error) {
	var rs Ranges
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "..")
		start, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse range %q: %w", part, err)
		}
		stop := start
		if isRange {
			stop, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse range %q: %w", part, err)
			}
		}
		if stop < start {
			return nil, fmt.Errorf("parse range %q: stop before start", part)
		}
		rs = append(rs, Range{Start: start, Stop: stop})
	}
	return rs.normalize(), nil
}

func (rs Ranges) normalize() Ranges {
	if len(rs) == 0 {
		return rs
	}
	slices.SortFunc(rs, func(a, b Range) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.Stop || r.Start == last.Stop+1 {
			if r.Stop > last.Stop {
				last.Stop = r.Stop
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Contains reports whether n lies in any range.
func (rs Ranges) Contains(n int64) bool {
	_, found := slices.BinarySearchFunc(rs, n, func(r Range, n int64) int {
		switch {
		case r.Stop < n:
			return -1
		case r.Start > n:
			return 1
		default:
			return 0
		}
	})
	return found
}

// String formats the ranges in the form accepted by ParseRanges.
func (rs Ranges) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		if r.Start == r.Stop {
			parts[i] = strconv.FormatInt(r.Start, 10)
		} else {
			parts[i] = fmt.Sprintf("%d..%d", r.Start, r.Stop)
		}
	}
	return strings.Join(parts, ",")
}
