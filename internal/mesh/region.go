package mesh

import (
	"fmt"
	"strings"

	"github.com/cmlibs/zinc-sub001/internal/engine"
	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// Region is a named mesh with child regions.
type Region struct {
	name     string
	mesh     *Mesh
	children []*Region
}

// NewRegion creates a region owning m. A nil m gets an empty mesh.
func NewRegion(name string, m *Mesh) *Region {
	if m == nil {
		m = New()
	}
	return &Region{name: ir.NormalizeName(name), mesh: m}
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Mesh returns the region's mesh.
func (r *Region) Mesh() *Mesh { return r.mesh }

// Collection returns the region's mesh as an engine collection.
func (r *Region) Collection() engine.Collection { return r.mesh }

// Children returns the child regions in insertion order.
func (r *Region) Children() []engine.Region {
	out := make([]engine.Region, len(r.children))
	for i, c := range r.children {
		out[i] = c
	}
	return out
}

// AddChild attaches child under r. Child names are unique per parent.
func (r *Region) AddChild(child *Region) error {
	if child.name == "" {
		return fmt.Errorf("child region of %q has no name", r.name)
	}
	if r.Child(child.name) != nil {
		return fmt.Errorf("region %q already has a child %q", r.name, child.name)
	}
	r.children = append(r.children, child)
	return nil
}

// Child returns the direct child called name, or nil.
func (r *Region) Child(name string) *Region {
	name = ir.NormalizeName(name)
	for _, c := range r.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Find resolves a slash separated path relative to r. "" and "/" are r.
func (r *Region) Find(path string) (*Region, error) {
	cur := r
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		next := cur.Child(part)
		if next == nil {
			return nil, fmt.Errorf("region %q not found", path)
		}
		cur = next
	}
	return cur, nil
}

// Walk calls fn for r and then every region below it, parents first.
// r's path is "/"; descendants are "/child/grandchild".
func (r *Region) Walk(fn func(path string, r *Region)) {
	r.walk("/", fn)
}

func (r *Region) walk(path string, fn func(string, *Region)) {
	fn(path, r)
	for _, c := range r.children {
		c.walk(strings.TrimSuffix(path, "/")+"/"+c.name, fn)
	}
}
