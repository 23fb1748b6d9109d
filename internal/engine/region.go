package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// Region is a named collection with child regions.
type Region interface {
	Name() string
	Collection() Collection
	Children() []Region
}

// Offsets are the whole-collection shifts applied by OffsetTree. A zero
// offset leaves that space alone.
type Offsets struct {
	Elements int64
	Faces    int64
	Lines    int64

	// Nodes shifts node identifiers, or datapoint identifiers when Data is
	// set.
	Nodes int64
	Data  bool
}

func (o Offsets) plan() []struct {
	space  ir.Space
	offset int64
} {
	nodes := ir.NodeSpace
	if o.Data {
		nodes = ir.DatapointSpace
	}
	all := []struct {
		space  ir.Space
		offset int64
	}{
		{ir.ElementSpace, o.Elements},
		{ir.FaceSpace, o.Faces},
		{ir.LineSpace, o.Lines},
		{nodes, o.Nodes},
	}
	out := all[:0]
	for _, p := range all {
		if p.offset != 0 {
			out = append(out, p)
		}
	}
	return out
}

// RegionReport is the outcome of OffsetTree for one region.
type RegionReport struct {
	// Path is the slash separated path of the region from the root.
	Path    string
	Reports []*Report
}

// OffsetTree shifts every identifier of the requested spaces in root and,
// recursively, in its child regions. Each region's spaces are bracketed
// together so subscribers see one change set per space and region.
//
// A region's reports leave out spaces it has no entities in. The walk
// stops at the first failure; regions already visited keep their
// new identifiers. The returned reports cover every region completed.
func OffsetTree(ctx context.Context, root Region, off Offsets, opts ...Option) ([]RegionReport, error) {
	var out []RegionReport
	err := offsetRegion(ctx, root, "", off, opts, &out)
	return out, err
}

func offsetRegion(ctx context.Context, r Region, parent string, off Offsets, opts []Option, out *[]RegionReport) (err error) {
	path := strings.TrimSuffix(parent, "/") + "/" + r.Name()
	if parent == "" {
		path = "/"
	}
	coll := r.Collection()
	plan := off.plan()

	var opened []ir.Space
	defer func() {
		for i := len(opened) - 1; i >= 0; i-- {
			if endErr := coll.EndBatch(ctx, opened[i]); endErr != nil && err == nil {
				err = fmt.Errorf("region %s: end batch: %w", path, endErr)
			}
		}
	}()
	for _, p := range plan {
		if err := coll.BeginBatch(ctx, p.space); err != nil {
			return fmt.Errorf("region %s: begin batch: %w", path, err)
		}
		opened = append(opened, p.space)
	}

	eng := New(coll, opts...)
	rr := RegionReport{Path: path}
	for _, p := range plan {
		kind, err := KindOf(p.space)
		if err != nil {
			return err
		}
		rep, err := eng.Renumber(ctx, Request{Kind: kind, Offset: p.offset})
		if err != nil {
			return fmt.Errorf("region %s: %w", path, err)
		}
		if rep.Members > 0 {
			rr.Reports = append(rr.Reports, rep)
		}
	}
	*out = append(*out, rr)

	for _, child := range r.Children() {
		if err := offsetRegion(ctx, child, path, off, opts, out); err != nil {
			return err
		}
	}
	return nil
}
