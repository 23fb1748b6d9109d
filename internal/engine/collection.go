package engine

import (
	"context"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// Collection is the keyed collection the engine relabels.
//
// Group "" names the whole collection: every entity of the space is a
// member.
type Collection interface {
	// CountMembers returns the number of members of group in space s.
	CountMembers(ctx context.Context, group string, s ir.Space) (int, error)

	// Members enumerates the members of group in space s in ascending
	// identifier order.
	Members(ctx context.Context, group string, s ir.Space) ([]ir.Handle, error)

	// Identifier returns the current identifier of h.
	Identifier(ctx context.Context, h ir.Handle) (ir.Identifier, error)

	// Lookup finds the entity holding id.
	Lookup(ctx context.Context, id ir.Identifier) (ir.Handle, bool, error)

	// IsMember reports whether h belongs to group.
	IsMember(ctx context.Context, h ir.Handle, group string) (bool, error)

	// ChangeIdentifier relabels h to id. It fails, changing nothing, when
	// another entity already holds id.
	ChangeIdentifier(ctx context.Context, h ir.Handle, id ir.Identifier) error

	// Shape returns the reference shape of an element (ShapeNone otherwise).
	Shape(ctx context.Context, h ir.Handle) (ir.Shape, error)

	// BeginBatch and EndBatch bracket a run of changes to space s. Brackets
	// nest; notifications are held until the outermost EndBatch.
	BeginBatch(ctx context.Context, s ir.Space) error
	EndBatch(ctx context.Context, s ir.Space) error
}

// Field maps an entity location to a vector of reals.
type Field interface {
	Name() string
	Evaluate(ctx context.Context, loc ir.Location) ([]float64, error)
}

// EntityKind knows where entities of one identifier space are evaluated.
type EntityKind interface {
	Space() ir.Space
	Locate(ctx context.Context, c Collection, h ir.Handle, time float64) (ir.Location, error)
}

type pointKind struct {
	space ir.Space
}

// Nodes is the node kind. Fields are evaluated at the node itself.
func Nodes() EntityKind { return pointKind{space: ir.NodeSpace} }

// Datapoints is the datapoint kind. Fields are evaluated at the point itself.
func Datapoints() EntityKind { return pointKind{space: ir.DatapointSpace} }

func (k pointKind) Space() ir.Space { return k.space }

func (k pointKind) Locate(_ context.Context, _ Collection, h ir.Handle, time float64) (ir.Location, error) {
	return ir.Location{Handle: h, Space: k.space, Time: time}, nil
}

type elementKind struct {
	space ir.Space
}

// Elements is the element kind for one type tag (element, face or line).
// Fields are evaluated at the centre of each element's reference cell.
func Elements(tag ir.Tag) EntityKind {
	return elementKind{space: ir.Space{Kind: ir.KindElement, Tag: tag}}
}

func (k elementKind) Space() ir.Space { return k.space }

func (k elementKind) Locate(ctx context.Context, c Collection, h ir.Handle, time float64) (ir.Location, error) {
	shape, err := c.Shape(ctx, h)
	if err != nil {
		return ir.Location{}, err
	}
	return ir.Location{Handle: h, Space: k.space, Xi: shape.Centre(), Time: time}, nil
}

// KindOf returns the entity kind for an identifier space.
func KindOf(s ir.Space) (EntityKind, error) {
	if !s.Valid() {
		return nil, &RenumberError{Code: ErrCodeInvalidRequest, Message: "invalid identifier space", Space: s}
	}
	switch s.Kind {
	case ir.KindNode:
		return Nodes(), nil
	case ir.KindDatapoint:
		return Datapoints(), nil
	default:
		return Elements(s.Tag), nil
	}
}
