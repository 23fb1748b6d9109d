// Package field provides the sort fields used by the renumber engine.
//
// Stored reads a field stored on the entities of a collection, interpolating
// node values inside elements that carry none of their own. Expression
// computes a value from stored fields, the entity identifier and the
// evaluation time with a CUE expression, e.g.
//
//	coordinates[1]*1000 + coordinates[0]
//	[coordinates[0], -identifier]
//
// A scalar result is a one component vector.
package field
