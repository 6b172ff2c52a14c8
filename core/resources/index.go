package resources

import (
	"sort"

	"github.com/opal-lang/seqscope/core/script"
)

// Point types a Point node can carry.
const (
	PointPlant          = "Plant"
	PointGenericPointer = "GenericPointer"
	PointWeed           = "Weed"
	PointToolSlot       = "ToolSlot"
)

// PointTypes lists point types in display order.
var PointTypes = []string{PointPlant, PointGenericPointer, PointWeed, PointToolSlot}

// Tool is a tool resource.
type Tool struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MapPoint is a point resource. ToolID is set for tool slots holding a tool.
type MapPoint struct {
	Type   string  `json:"pointer_type"`
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	ToolID int     `json:"tool_id,omitempty"`
}

// Vector returns the point's position.
func (p MapPoint) Vector() *Vector3 { return &Vector3{X: p.X, Y: p.Y, Z: p.Z} }

// Group is a named group of points.
type Group struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	PointIDs []int  `json:"point_ids,omitempty"`
}

type pointKey struct {
	kind string
	id   int
}

// Index is an immutable resource snapshot. Build one with a Builder or
// derive a new one with the With* methods; no method mutates a published
// Index, so one snapshot can back a whole resolution pass.
type Index struct {
	tools     map[int]Tool
	points    map[pointKey]MapPoint
	groups    map[int]Group
	sequences map[string]*script.Sequence
	variables map[string]*VariableNameSet
}

// Empty returns an index with no resources.
func Empty() *Index { return NewBuilder().Build() }

// Tool looks up a tool by id.
func (idx *Index) Tool(id int) (Tool, bool) {
	t, ok := idx.tools[id]
	return t, ok
}

// Point looks up a point by type and id.
func (idx *Index) Point(kind string, id int) (MapPoint, bool) {
	p, ok := idx.points[pointKey{kind, id}]
	return p, ok
}

// SlotFor returns the tool slot currently holding toolID.
func (idx *Index) SlotFor(toolID int) (MapPoint, bool) {
	var found *MapPoint
	for _, p := range idx.points {
		if p.Type == PointToolSlot && p.ToolID == toolID {
			// Lowest slot id wins when a tool is recorded in two slots.
			if found == nil || p.ID < found.ID {
				p := p
				found = &p
			}
		}
	}
	if found == nil {
		return MapPoint{}, false
	}
	return *found, true
}

// Group looks up a point group by id.
func (idx *Index) Group(id int) (Group, bool) {
	g, ok := idx.groups[id]
	return g, ok
}

// Sequence looks up a sequence by id.
func (idx *Index) Sequence(id string) (*script.Sequence, bool) {
	s, ok := idx.sequences[id]
	return s, ok
}

// SequenceIDs returns all sequence ids, sorted.
func (idx *Index) SequenceIDs() []string {
	ids := make([]string, 0, len(idx.sequences))
	for id := range idx.sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Variables returns the name set for a sequence, or nil if none was built.
func (idx *Index) Variables(scriptID string) *VariableNameSet {
	return idx.variables[scriptID]
}

// FindVariable looks up one label in a sequence's name set. A nil summary
// with ok == true is an orphan reference.
func (idx *Index) FindVariable(scriptID, label string) (summary *BindingSummary, ok bool) {
	return idx.variables[scriptID].Get(label)
}

// Tools returns tools sorted by id.
func (idx *Index) Tools() []Tool {
	out := make([]Tool, 0, len(idx.tools))
	for _, t := range idx.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Points returns points of one type sorted by id.
func (idx *Index) Points(kind string) []MapPoint {
	var out []MapPoint
	for k, p := range idx.points {
		if k.kind == kind {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Groups returns point groups sorted by id.
func (idx *Index) Groups() []Group {
	out := make([]Group, 0, len(idx.groups))
	for _, g := range idx.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WithSequence returns a snapshot that also holds seq. The sequence's name
// set is left as it was; rebuild it with the binding package.
func (idx *Index) WithSequence(seq *script.Sequence) *Index {
	next := idx.shallowCopy()
	next.sequences = make(map[string]*script.Sequence, len(idx.sequences)+1)
	for k, v := range idx.sequences {
		next.sequences[k] = v
	}
	next.sequences[seq.ID] = seq
	return next
}

// WithVariables returns a snapshot whose name set for scriptID is set.
func (idx *Index) WithVariables(scriptID string, set *VariableNameSet) *Index {
	next := idx.shallowCopy()
	next.variables = make(map[string]*VariableNameSet, len(idx.variables)+1)
	for k, v := range idx.variables {
		next.variables[k] = v
	}
	next.variables[scriptID] = set
	return next
}

// WithoutSequence drops a sequence and its name set.
func (idx *Index) WithoutSequence(scriptID string) *Index {
	next := idx.shallowCopy()
	next.sequences = make(map[string]*script.Sequence, len(idx.sequences))
	for k, v := range idx.sequences {
		if k != scriptID {
			next.sequences[k] = v
		}
	}
	next.variables = make(map[string]*VariableNameSet, len(idx.variables))
	for k, v := range idx.variables {
		if k != scriptID {
			next.variables[k] = v
		}
	}
	return next
}

func (idx *Index) shallowCopy() *Index {
	c := *idx
	return &c
}

// Builder assembles an Index. A Builder must not be used after Build.
type Builder struct {
	idx *Index
}

// NewBuilder starts an empty index.
func NewBuilder() *Builder {
	return &Builder{idx: &Index{
		tools:     map[int]Tool{},
		points:    map[pointKey]MapPoint{},
		groups:    map[int]Group{},
		sequences: map[string]*script.Sequence{},
		variables: map[string]*VariableNameSet{},
	}}
}

func (b *Builder) AddTool(t Tool) *Builder {
	b.idx.tools[t.ID] = t
	return b
}

func (b *Builder) AddPoint(p MapPoint) *Builder {
	b.idx.points[pointKey{p.Type, p.ID}] = p
	return b
}

func (b *Builder) AddGroup(g Group) *Builder {
	b.idx.groups[g.ID] = g
	return b
}

func (b *Builder) AddSequence(seq *script.Sequence) *Builder {
	b.idx.sequences[seq.ID] = seq
	return b
}

func (b *Builder) SetVariables(scriptID string, set *VariableNameSet) *Builder {
	b.idx.variables[scriptID] = set
	return b
}

// Build returns the finished snapshot.
func (b *Builder) Build() *Index {
	idx := b.idx
	b.idx = nil
	return idx
}

// VariableNameSet maps labels to summaries in insertion order.
// A label present with a nil summary is an orphan: referenced but never
// declared. Sets are filled once while a snapshot is built and read-only
// afterwards.
type VariableNameSet struct {
	labels  []string
	entries map[string]*BindingSummary
}

// NewVariableNameSet returns an empty set.
func NewVariableNameSet() *VariableNameSet {
	return &VariableNameSet{entries: map[string]*BindingSummary{}}
}

// Set records a label. Re-setting a label keeps its original position.
func (s *VariableNameSet) Set(label string, summary *BindingSummary) {
	if _, ok := s.entries[label]; !ok {
		s.labels = append(s.labels, label)
	}
	s.entries[label] = summary
}

// Get returns the summary for label. ok is false when the label is unknown.
func (s *VariableNameSet) Get(label string) (summary *BindingSummary, ok bool) {
	if s == nil {
		return nil, false
	}
	summary, ok = s.entries[label]
	return summary, ok
}

// Labels returns every label in insertion order, orphans included.
func (s *VariableNameSet) Labels() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.labels...)
}

// Len counts labels, orphans included.
func (s *VariableNameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Summaries returns the non-orphan summaries in insertion order.
func (s *VariableNameSet) Summaries() []*BindingSummary {
	if s == nil {
		return nil
	}
	out := make([]*BindingSummary, 0, len(s.labels))
	for _, l := range s.labels {
		if e := s.entries[l]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Orphans returns the labels that have no summary.
func (s *VariableNameSet) Orphans() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, l := range s.labels {
		if s.entries[l] == nil {
			out = append(out, l)
		}
	}
	return out
}

// Variables returns the summarized nodes that bind a label, for label generation.
func (s *VariableNameSet) Variables() []script.Variable {
	var out []script.Variable
	for _, e := range s.Summaries() {
		if v, ok := e.Node.(script.Variable); ok {
			out = append(out, v)
		}
	}
	return out
}
