package ir

import (
	"fmt"
	"strings"
)

// Shape is the reference-cell shape of an element.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeLine
	ShapeSquare
	ShapeCube
	ShapeTriangle
	ShapeTetrahedron
)

var shapeNames = map[Shape]string{
	ShapeLine:        "line",
	ShapeSquare:      "square",
	ShapeCube:        "cube",
	ShapeTriangle:    "triangle",
	ShapeTetrahedron: "tetrahedron",
}

// String returns the shape name ("" for ShapeNone).
func (s Shape) String() string {
	return shapeNames[s]
}

// ParseShape parses a shape name.
func ParseShape(s string) (Shape, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for shape, n := range shapeNames {
		if n == name {
			return shape, nil
		}
	}
	return ShapeNone, fmt.Errorf("unknown element shape %q", s)
}

// Dimension returns the number of xi coordinates of the shape.
func (s Shape) Dimension() int {
	switch s {
	case ShapeLine:
		return 1
	case ShapeSquare, ShapeTriangle:
		return 2
	case ShapeCube, ShapeTetrahedron:
		return 3
	default:
		return 0
	}
}

// Simplex reports whether the shape is a triangle or tetrahedron.
func (s Shape) Simplex() bool {
	return s == ShapeTriangle || s == ShapeTetrahedron
}

// LinearNodes returns the number of nodes of a linear element of this shape.
func (s Shape) LinearNodes() int {
	if s.Simplex() {
		return s.Dimension() + 1
	}
	d := s.Dimension()
	if d == 0 {
		return 0
	}
	return 1 << d
}

// Centre returns the xi coordinates of the cell centre: 0.5 in every
// direction for line/square/cube, 1/(d+1) for simplices.
func (s Shape) Centre() []float64 {
	d := s.Dimension()
	xi := make([]float64, d)
	c := 0.5
	if s.Simplex() {
		c = 1 / float64(d+1)
	}
	for i := range xi {
		xi[i] = c
	}
	return xi
}

// Location is where a field is evaluated: an entity, optionally a point
// inside it (Xi, elements only), at a time.
type Location struct {
	Handle Handle
	Space  Space
	Xi     []float64
	Time   float64
}
