package mesh

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// Document is the YAML form of a region tree.
//
// Element node lists and group ranges refer to identifiers as they are in
// the document; group members refer to entity names.
type Document struct {
	Fields     []FieldDoc   `yaml:"fields,omitempty"`
	Nodes      []EntityDoc  `yaml:"nodes,omitempty"`
	Datapoints []EntityDoc  `yaml:"datapoints,omitempty"`
	Elements   []ElementDoc `yaml:"elements,omitempty"`
	Groups     []GroupDoc   `yaml:"groups,omitempty"`
	Regions    []RegionDoc  `yaml:"regions,omitempty"`
}

// FieldDoc declares a stored field.
type FieldDoc struct {
	Name       string `yaml:"name"`
	Components int    `yaml:"components"`
}

// EntityDoc is a node or datapoint.
type EntityDoc struct {
	ID     int64                `yaml:"id"`
	Name   string               `yaml:"name,omitempty"`
	Values map[string][]float64 `yaml:"values,omitempty"`
}

// ElementDoc is an element, face or line.
type ElementDoc struct {
	ID     int64                `yaml:"id"`
	Name   string               `yaml:"name,omitempty"`
	Tag    string               `yaml:"tag,omitempty"`
	Shape  string               `yaml:"shape"`
	Nodes  []int64              `yaml:"nodes,omitempty"`
	Values map[string][]float64 `yaml:"values,omitempty"`
}

// GroupDoc lists group members by entity name and by identifier ranges
// keyed by space ("node", "face", ...).
type GroupDoc struct {
	Name    string            `yaml:"name"`
	Members []string          `yaml:"members,omitempty"`
	Ranges  map[string]string `yaml:"ranges,omitempty"`
}

// RegionDoc is a named child region.
type RegionDoc struct {
	Name     string `yaml:"name"`
	Document `yaml:",inline"`
}

// LoadFile reads a YAML document from path.
func LoadFile(path string) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mesh %s: %w", path, err)
	}
	r, err := LoadYAML(data)
	if err != nil {
		return nil, fmt.Errorf("load mesh %s: %w", path, err)
	}
	return r, nil
}

// LoadYAML decodes a YAML document into a root region. Unknown keys are
// rejected.
func LoadYAML(data []byte) (*Region, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode mesh: %w", err)
	}
	return doc.Build("")
}

// Build creates a region called name from the document.
func (d *Document) Build(name string) (*Region, error) {
	m := New()
	if err := d.populate(m); err != nil {
		return nil, err
	}
	r := NewRegion(name, m)
	for i := range d.Regions {
		rd := &d.Regions[i]
		child, err := rd.Document.Build(rd.Name)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", rd.Name, err)
		}
		if err := r.AddChild(child); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (d *Document) populate(m *Mesh) error {
	for _, f := range d.Fields {
		if err := m.DefineField(f.Name, f.Components); err != nil {
			return err
		}
	}
	nodeByID := make(map[int64]ir.Handle, len(d.Nodes))
	for _, n := range d.Nodes {
		h, err := m.AddNode(n.ID)
		if err != nil {
			return err
		}
		nodeByID[n.ID] = h
		if err := setEntity(m, h, n.Name, n.Values); err != nil {
			return err
		}
	}
	for _, n := range d.Datapoints {
		h, err := m.AddDatapoint(n.ID)
		if err != nil {
			return err
		}
		if err := setEntity(m, h, n.Name, n.Values); err != nil {
			return err
		}
	}
	for _, e := range d.Elements {
		tag, err := ir.ParseTag(e.Tag)
		if err != nil {
			return err
		}
		shape, err := ir.ParseShape(e.Shape)
		if err != nil {
			return fmt.Errorf("element %d: %w", e.ID, err)
		}
		nodes := make([]ir.Handle, len(e.Nodes))
		for i, id := range e.Nodes {
			h, ok := nodeByID[id]
			if !ok {
				return fmt.Errorf("element %d: node %d not defined", e.ID, id)
			}
			nodes[i] = h
		}
		h, err := m.AddElement(tag, e.ID, shape, nodes)
		if err != nil {
			return err
		}
		if err := setEntity(m, h, e.Name, e.Values); err != nil {
			return err
		}
	}
	for _, g := range d.Groups {
		if err := populateGroup(m, g); err != nil {
			return err
		}
	}
	return nil
}

func setEntity(m *Mesh, h ir.Handle, name string, values map[string][]float64) error {
	if name != "" {
		if err := m.SetName(h, name); err != nil {
			return err
		}
	}
	for field, v := range values {
		if err := m.SetValues(h, field, v); err != nil {
			return err
		}
	}
	return nil
}

func populateGroup(m *Mesh, g GroupDoc) error {
	hs := make([]ir.Handle, 0, len(g.Members))
	for _, name := range g.Members {
		h, ok := m.ByName(name)
		if !ok {
			return fmt.Errorf("group %q: no entity named %q", g.Name, name)
		}
		hs = append(hs, h)
	}
	if err := m.AddToGroup(g.Name, hs...); err != nil {
		return err
	}
	for spaceName, text := range g.Ranges {
		s, err := ir.ParseSpace(spaceName)
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		rs, err := ir.ParseRanges(text)
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if _, err := m.AddRangeToGroup(g.Name, s, rs); err != nil {
			return err
		}
	}
	return nil
}

// Document returns the current state of r and its children as a document.
// Group membership is written as members for named entities and as ranges
// for the rest.
func (r *Region) Document() Document {
	doc := r.mesh.document()
	for _, c := range r.children {
		doc.Regions = append(doc.Regions, RegionDoc{Name: c.name, Document: c.Document()})
	}
	return doc
}

// EncodeYAML writes the document of r to w.
func (r *Region) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := r.Document()
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode mesh: %w", err)
	}
	return enc.Close()
}

func (m *Mesh) document() Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var doc Document
	for name, n := range m.fields {
		doc.Fields = append(doc.Fields, FieldDoc{Name: name, Components: n})
	}
	slices.SortFunc(doc.Fields, func(a, b FieldDoc) int { return cmp.Compare(a.Name, b.Name) })

	for _, s := range []ir.Space{ir.NodeSpace, ir.DatapointSpace} {
		hs := m.handlesLocked(s)
		for _, h := range hs {
			e := m.entities[h-1]
			ed := EntityDoc{ID: e.id.Number, Name: e.name, Values: cloneValues(e.values)}
			if s == ir.NodeSpace {
				doc.Nodes = append(doc.Nodes, ed)
			} else {
				doc.Datapoints = append(doc.Datapoints, ed)
			}
		}
	}
	for _, s := range []ir.Space{ir.ElementSpace, ir.FaceSpace, ir.LineSpace} {
		for _, h := range m.handlesLocked(s) {
			e := m.entities[h-1]
			ed := ElementDoc{ID: e.id.Number, Name: e.name, Shape: e.shape.String(), Values: cloneValues(e.values)}
			if s.Tag != ir.TagElement {
				ed.Tag = s.Tag.String()
			}
			for _, n := range e.nodes {
				ed.Nodes = append(ed.Nodes, m.entities[n-1].id.Number)
			}
			doc.Elements = append(doc.Elements, ed)
		}
	}

	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		g := GroupDoc{Name: name}
		unnamed := make(map[ir.Space][]int64)
		for _, v := range m.groups[name].ToArray() {
			e := m.entities[v-1]
			if e.name != "" {
				g.Members = append(g.Members, e.name)
				continue
			}
			unnamed[e.id.Space] = append(unnamed[e.id.Space], e.id.Number)
		}
		slices.Sort(g.Members)
		for s, numbers := range unnamed {
			if g.Ranges == nil {
				g.Ranges = make(map[string]string)
			}
			g.Ranges[s.String()] = rangesOf(numbers).String()
		}
		doc.Groups = append(doc.Groups, g)
	}
	return doc
}

func (m *Mesh) handlesLocked(s ir.Space) []ir.Handle {
	var hs []ir.Handle
	for i, e := range m.entities {
		if e.id.Space == s {
			hs = append(hs, ir.Handle(i+1))
		}
	}
	m.sortByNumberLocked(hs)
	return hs
}

func rangesOf(numbers []int64) ir.Ranges {
	slices.Sort(numbers)
	var rs ir.Ranges
	for _, n := range numbers {
		if len(rs) > 0 && rs[len(rs)-1].Stop+1 == n {
			rs[len(rs)-1].Stop = n
			continue
		}
		rs = append(rs, ir.Range{Start: n, Stop: n})
	}
	return rs
}

func cloneValues(v map[string][]float64) map[string][]float64 {
	if len(v) == 0 {
		return nil
	}
	out := make(map[string][]float64, len(v))
	for k, vals := range v {
		out[k] = slices.Clone(vals)
	}
	return out
}
