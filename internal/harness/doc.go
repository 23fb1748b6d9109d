// Package harness runs renumbering scenarios written in YAML.
//
// # Scenario Format
//
//	name: group_offset
//	description: "Offsetting a group shifts every member"
//	mesh:
//	  nodes:
//	    - {id: 5, name: A}
//	    - {id: 9, name: B}
//	  groups:
//	    - {name: g, members: [A, B]}
//	steps:
//	  - renumber: {group: g, space: node, offset: 100}
//	  - renumber: {group: g, space: node, offset: -200}
//	    expect_error: NON_POSITIVE_IDENTIFIER
//	assertions:
//	  - type: identifiers
//	    expect: {A: 105, B: 109}
//	  - type: notifications
//	    count: 1
//
// The mesh is either inline (a mesh document, child regions included) or
// loaded from mesh_file, relative to the scenario file.
//
// # Steps
//
//   - renumber: one engine call on one region (default the root region),
//     by offset or, with sort_by, by the order of a stored field or an
//     "expr:" CUE expression
//   - offset: whole-space offsets of elements, faces, lines and nodes or
//     datapoints across the region tree
//
// A step without expect_error must succeed; with it, it must fail with that
// error code.
//
// # Assertion Types
//
//   - identifiers: named entities of a region have the expected numbers
//   - unchanged: a region's identifiers are exactly as loaded
//   - notifications: the number of change sets subscribers received
//
// # Golden Files
//
// RunWithGolden writes the outcome of every step and the final identifiers
// of every named entity as canonical JSON to testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
