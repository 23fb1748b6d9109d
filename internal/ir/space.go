package ir

import (
	"fmt"
	"strings"
)

// Kind is the kind of entity stored in a collection.
type Kind uint8

const (
	// KindNode is a mesh vertex. Identified by a plain integer.
	KindNode Kind = iota + 1

	// KindDatapoint is a data point held in its own nodeset.
	// Identified by a plain integer, independently of nodes.
	KindDatapoint

	// KindElement is a mesh cell. Identified by a {tag, integer} pair.
	KindElement
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindDatapoint:
		return "datapoint"
	case KindElement:
		return "element"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tag partitions the element identifier space into independent sub-ranges.
// Nodes and datapoints always use TagNone.
type Tag uint8

const (
	TagNone Tag = iota
	TagElement
	TagFace
	TagLine
)

// String returns the lower-case tag name ("" for TagNone).
func (t Tag) String() string {
	switch t {
	case TagNone:
		return ""
	case TagElement:
		return "element"
	case TagFace:
		return "face"
	case TagLine:
		return "line"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// ParseTag parses an element type tag.
func ParseTag(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "element":
		return TagElement, nil
	case "face":
		return TagFace, nil
	case "line":
		return TagLine, nil
	default:
		return TagNone, fmt.Errorf("unknown element tag %q", s)
	}
}

// Space is one independent identifier space: every identifier within a Space
// is unique across the whole collection.
type Space struct {
	Kind Kind
	Tag  Tag
}

// Common spaces.
var (
	NodeSpace      = Space{Kind: KindNode}
	DatapointSpace = Space{Kind: KindDatapoint}
	ElementSpace   = Space{Kind: KindElement, Tag: TagElement}
	FaceSpace      = Space{Kind: KindElement, Tag: TagFace}
	LineSpace      = Space{Kind: KindElement, Tag: TagLine}
)

// Valid reports whether the kind/tag combination is meaningful.
func (s Space) Valid() bool {
	switch s.Kind {
	case KindNode, KindDatapoint:
		return s.Tag == TagNone
	case KindElement:
		return s.Tag == TagElement || s.Tag == TagFace || s.Tag == TagLine
	default:
		return false
	}
}

// String renders the space as it is written on the command line:
// "node", "datapoint", "element", "face" or "line".
func (s Space) String() string {
	if s.Kind == KindElement {
		return s.Tag.String()
	}
	return s.Kind.String()
}

// ParseSpace parses the command-line spelling of a space.
func ParseSpace(s string) (Space, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "node", "nodes":
		return NodeSpace, nil
	case "datapoint", "datapoints", "data":
		return DatapointSpace, nil
	case "element", "elements":
		return ElementSpace, nil
	case "face", "faces":
		return FaceSpace, nil
	case "line", "lines":
		return LineSpace, nil
	default:
		return Space{}, fmt.Errorf("unknown identifier space %q (want node|datapoint|element|face|line)", s)
	}
}

// Identifier is the relabelable key of an entity.
type Identifier struct {
	Space  Space
	Number int64
}

// ID builds an Identifier in space s.
func ID(s Space, number int64) Identifier {
	return Identifier{Space: s, Number: number}
}

// String renders "space:number", e.g. "face:12".
func (id Identifier) String() string {
	return fmt.Sprintf("%s:%d", id.Space, id.Number)
}

// Handle is the stable reference to an entity inside its collection.
// Handles are assigned at insertion, start at 1 and are never reused or
// relabelled. The zero Handle refers to nothing.
type Handle uint32

// Valid reports whether h can refer to an entity.
func (h Handle) Valid() bool {
	return h != 0
}
