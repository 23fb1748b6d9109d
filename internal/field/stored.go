package field

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// ErrNotDefined is returned when a field has no value at a location.
var ErrNotDefined = errors.New("field not defined at location")

// Source is what the evaluators read from. Both the in-memory mesh and the
// SQLite store implement it.
type Source interface {
	FieldNames() []string
	FieldComponents(name string) (int, bool)
	Values(ctx context.Context, h ir.Handle, name string) ([]float64, bool, error)
	ElementNodes(ctx context.Context, h ir.Handle) ([]ir.Handle, error)
	Identifier(ctx context.Context, h ir.Handle) (ir.Identifier, error)
	Shape(ctx context.Context, h ir.Handle) (ir.Shape, error)
}

// Stored evaluates a stored field.
type Stored struct {
	src        Source
	name       string
	components int
}

// NewStored returns the evaluator of the stored field name.
func NewStored(src Source, name string) (*Stored, error) {
	name = ir.NormalizeName(name)
	n, ok := src.FieldComponents(name)
	if !ok {
		return nil, fmt.Errorf("field %q is not defined", name)
	}
	return &Stored{src: src, name: name, components: n}, nil
}

// Name returns the field name.
func (s *Stored) Name() string { return s.name }

// Components returns the number of components of every value.
func (s *Stored) Components() int { return s.components }

// Evaluate returns the value stored on the entity. An element without its
// own value interpolates the values of its nodes at loc.Xi (the element
// centre when Xi is empty).
func (s *Stored) Evaluate(ctx context.Context, loc ir.Location) ([]float64, error) {
	v, ok, err := s.src.Values(ctx, loc.Handle, s.name)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	if loc.Space.Kind != ir.KindElement {
		return nil, fmt.Errorf("%s at handle %d: %w", s.name, loc.Handle, ErrNotDefined)
	}
	return s.interpolate(ctx, loc)
}

func (s *Stored) interpolate(ctx context.Context, loc ir.Location) ([]float64, error) {
	nodes, err := s.src.ElementNodes(ctx, loc.Handle)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s at handle %d: %w", s.name, loc.Handle, ErrNotDefined)
	}
	shape, err := s.src.Shape(ctx, loc.Handle)
	if err != nil {
		return nil, err
	}
	xi := loc.Xi
	if len(xi) == 0 {
		xi = shape.Centre()
	}
	weights, err := basis(shape, xi)
	if err != nil {
		return nil, err
	}
	if len(weights) != len(nodes) {
		return nil, fmt.Errorf("%s at handle %d: %s has %d nodes, want %d",
			s.name, loc.Handle, shape, len(nodes), len(weights))
	}

	out := make([]float64, s.components)
	for i, n := range nodes {
		v, ok, err := s.src.Values(ctx, n, s.name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s at node handle %d: %w", s.name, n, ErrNotDefined)
		}
		for c := range out {
			out[c] += weights[i] * v[c]
		}
	}
	return out, nil
}

// basis returns the linear Lagrange weights of the corner nodes of shape
// at xi. Corner k of a line, square or cube sits at xi_i = bit i of k;
// simplex corners are the origin followed by the unit points.
func basis(shape ir.Shape, xi []float64) ([]float64, error) {
	d := shape.Dimension()
	if d == 0 {
		return nil, fmt.Errorf("cannot interpolate in shape %q", shape)
	}
	if len(xi) != d {
		return nil, fmt.Errorf("%s needs %d xi coordinates, got %d", shape, d, len(xi))
	}
	if shape.Simplex() {
		w := make([]float64, d+1)
		w[0] = 1
		for i, x := range xi {
			w[0] -= x
			w[i+1] = x
		}
		return w, nil
	}
	w := make([]float64, 1<<d)
	for k := range w {
		w[k] = 1
		for i, x := range xi {
			if k&(1<<i) != 0 {
				w[k] *= x
			} else {
				w[k] *= 1 - x
			}
		}
	}
	return w, nil
}
