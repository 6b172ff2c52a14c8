package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
)

type flags bool

func (f flags) MultipleVariables() bool { return bool(f) }

func coord(x, y, z float64) *script.Coordinate { return &script.Coordinate{X: x, Y: y, Z: z} }

func vec(x, y, z float64) *resources.Vector3 { return &resources.Vector3{X: x, Y: y, Z: z} }

func farm() *resources.Index {
	return resources.NewBuilder().
		AddTool(resources.Tool{ID: 1, Name: "Seeder"}).
		AddTool(resources.Tool{ID: 2, Name: "Weeder"}).
		AddPoint(resources.MapPoint{Type: resources.PointToolSlot, ID: 10, Name: "Slot", X: 10, Y: 20, ToolID: 1}).
		AddPoint(resources.MapPoint{Type: resources.PointPlant, ID: 20, Name: "Tomato", X: 1, Y: 2, Z: 3}).
		AddPoint(resources.MapPoint{Type: resources.PointGenericPointer, ID: 30, Name: "Marker", X: 4, Y: 5, Z: 6}).
		AddPoint(resources.MapPoint{Type: resources.PointWeed, ID: 40, Name: "Dandelion", X: 7, Y: 8, Z: 9}).
		AddGroup(resources.Group{ID: 5, Name: "Beds", PointIDs: []int{20, 30}}).
		Build()
}

func moveTo(label string) *script.Step {
	return &script.Step{StepKind: "move_absolute", Args: []script.Arg{
		{Name: "location", Node: &script.Identifier{Label: label}},
	}}
}

// fixture returns a snapshot holding sequence "seq": a parameter "parent"
// defaulting to (1, 2, 3), a variable bound to the mounted Seeder, and a
// body that reads "parent" and the undeclared "ghost".
func fixture() *resources.Index {
	seq := &script.Sequence{
		ID: "seq",
		Locals: &script.ScopeDeclaration{Body: []script.Variable{
			&script.ParameterDeclaration{Label: "parent", DefaultValue: coord(1, 2, 3)},
			&script.VariableDeclaration{Label: "Location variable 1", DataValue: &script.Tool{ToolID: 1}},
		}},
		Body: []script.Node{moveTo("parent"), moveTo("ghost")},
	}
	return Reindex(farm(), seq)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Parameter, Variable, Identifier} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("declaration")
	assert.Error(t, err)
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestSelectionToNode(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want script.Variable
	}{
		{
			name: "null pick declares origin",
			sel:  Selection{IdentifierLabel: "parent", Kind: Variable, Pick: NoValueSelected()},
			want: &script.VariableDeclaration{Label: "parent", DataValue: coord(0, 0, 0)},
		},
		{
			name: "null pick parameter",
			sel:  Selection{IdentifierLabel: "parent", Kind: Parameter, Pick: NoValueSelected()},
			want: &script.ParameterDeclaration{Label: "parent", DefaultValue: coord(0, 0, 0)},
		},
		{
			name: "null pick application is empty reference",
			sel:  Selection{IdentifierLabel: "parent", Kind: Identifier, Pick: NoValueSelected()},
			want: &script.ParameterApplication{Label: "parent", DataValue: &script.Nothing{}},
		},
		{
			name: "variable pick",
			sel:  Selection{IdentifierLabel: "parent", Kind: Identifier, Pick: Parent("Variable - Externally defined")},
			want: &script.ParameterApplication{Label: "parent", DataValue: &script.Identifier{Label: "parent"}},
		},
		{
			name: "parameter picking itself",
			sel: Selection{IdentifierLabel: "parent", Kind: Parameter, Pick: resources.DropdownEntry{
				Label: LabelExternallyDefined, Value: resources.StringValue("parent"), HeadingID: HeadingVariable,
			}},
			want: &script.ParameterDeclaration{Label: "parent", DefaultValue: coord(0, 0, 0)},
		},
		{
			name: "tool",
			sel: Selection{IdentifierLabel: "x", Kind: Variable, Pick: resources.DropdownEntry{
				Label: "Seeder", Value: resources.NumberValue(1), HeadingID: HeadingTool,
			}},
			want: &script.VariableDeclaration{Label: "x", DataValue: &script.Tool{ToolID: 1}},
		},
		{
			name: "tool id sent as text",
			sel: Selection{IdentifierLabel: "x", Kind: Variable, Pick: resources.DropdownEntry{
				Label: "Seeder", Value: resources.StringValue("1"), HeadingID: HeadingTool,
			}},
			want: &script.VariableDeclaration{Label: "x", DataValue: &script.Tool{ToolID: 1}},
		},
		{
			name: "plant",
			sel: Selection{IdentifierLabel: "x", Kind: Identifier, Pick: resources.DropdownEntry{
				Label: "Tomato", Value: resources.NumberValue(20), HeadingID: resources.PointPlant,
			}},
			want: &script.ParameterApplication{Label: "x", DataValue: &script.Point{PointerType: "Plant", PointerID: 20}},
		},
		{
			name: "group",
			sel: Selection{IdentifierLabel: "x", Kind: Parameter, Pick: resources.DropdownEntry{
				Label: "Beds", Value: resources.NumberValue(5), HeadingID: HeadingPointGroup,
			}},
			want: &script.ParameterDeclaration{Label: "x", DefaultValue: &script.PointGroup{PointGroupID: 5}},
		},
		{
			name: "custom coordinates reads input boxes",
			sel:  Selection{IdentifierLabel: "x", Kind: Variable, Pick: CustomCoordinates(), Vector: vec(4, 5, 6)},
			want: &script.VariableDeclaration{Label: "x", DataValue: coord(4, 5, 6)},
		},
		{
			name: "custom coordinates without input",
			sel:  Selection{IdentifierLabel: "x", Kind: Variable, Pick: CustomCoordinates()},
			want: &script.VariableDeclaration{Label: "x", DataValue: coord(0, 0, 0)},
		},
		{
			name: "heading entry counts as nothing",
			sel:  Selection{IdentifierLabel: "x", Kind: Identifier, Pick: Heading(HeadingTool)},
			want: &script.ParameterApplication{Label: "x", DataValue: &script.Nothing{}},
		},
		{
			name: "unknown heading counts as nothing",
			sel: Selection{IdentifierLabel: "x", Kind: Variable, Pick: resources.DropdownEntry{
				Label: "Sensor", Value: resources.NumberValue(3), HeadingID: "Sensor",
			}},
			want: &script.VariableDeclaration{Label: "x", DataValue: coord(0, 0, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectionToNode(tt.sel)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("node mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectionToNodeUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		SelectionToNode(Selection{IdentifierLabel: "x", Kind: Kind(9), Pick: NoValueSelected()})
	})
}

// display is the part of a summary a round trip must reproduce.
type display struct {
	Dropdown resources.DropdownEntry
	Vector   *resources.Vector3
}

func displayOf(s resources.BindingSummary) display {
	return display{Dropdown: s.Dropdown, Vector: s.Vector}
}

func TestResolverRoundTrip(t *testing.T) {
	idx := fixture()

	values := []script.Node{
		coord(0, 0, 0),
		coord(1, 2.5, -3),
		&script.Tool{ToolID: 1},
		&script.Tool{ToolID: 2},
		&script.Tool{ToolID: 99},
		&script.Point{PointerType: resources.PointPlant, PointerID: 20},
		&script.Point{PointerType: resources.PointGenericPointer, PointerID: 30},
		&script.Point{PointerType: resources.PointWeed, PointerID: 40},
		&script.Point{PointerType: resources.PointToolSlot, PointerID: 10},
		&script.Point{PointerType: resources.PointPlant, PointerID: 999},
		&script.PointGroup{PointGroupID: 5},
		&script.PointGroup{PointGroupID: 6},
		&script.Identifier{Label: "parent"},
		&script.Identifier{Label: "Location variable 1"},
		&script.Identifier{Label: "ghost"},
		&script.Identifier{Label: "missing"},
	}

	for _, kind := range []Kind{Parameter, Variable, Identifier} {
		cases := values
		if kind == Identifier {
			cases = append(cases, &script.Nothing{})
		}
		for _, value := range cases {
			t.Run(kind.String()+"/"+value.String(), func(t *testing.T) {
				first := Summarize(wrap(kind, "loc", value), idx, "seq")
				node := SelectionToNode(Selection{IdentifierLabel: "loc", Kind: kind, Pick: first.Dropdown})
				second := Summarize(node, idx, "seq")

				if diff := cmp.Diff(displayOf(first), displayOf(second)); diff != "" {
					t.Errorf("round trip changed the summary (-first +second):\n%s", diff)
				}
				assert.Equal(t, "loc", second.Label())
			})
		}
	}
}

// A header declaration holding nothing reads as "None", and picking "None"
// for a header kind yields the origin, so this value does not round-trip.
func TestHeaderNothingClearsToOrigin(t *testing.T) {
	idx := fixture()

	for _, kind := range []Kind{Parameter, Variable} {
		t.Run(kind.String(), func(t *testing.T) {
			first := Summarize(wrap(kind, "loc", &script.Nothing{}), idx, "seq")
			assert.Equal(t, NoValueSelected(), first.Dropdown)
			assert.Nil(t, first.Vector)

			node := SelectionToNode(Selection{IdentifierLabel: "loc", Kind: kind, Pick: first.Dropdown})
			assert.Equal(t, coord(0, 0, 0), node.Value())

			second := Summarize(node, idx, "seq")
			assert.Equal(t, "Coordinate (0, 0, 0)", second.Dropdown.Label)
			assert.Equal(t, vec(0, 0, 0), second.Vector)
		})
	}
}

func TestChoicesSummarizeToThemselves(t *testing.T) {
	idx := fixture()
	items := VariableItems(Identifier, idx, "seq", &script.ParameterApplication{Label: "loc"}, flags(false))

	for _, entry := range Choices(idx, items, true) {
		if entry.Heading || entry.Value.IsEmpty() {
			continue
		}
		t.Run(entry.Label, func(t *testing.T) {
			node := SelectionToNode(Selection{IdentifierLabel: "loc", Kind: Identifier, Pick: entry})
			got := Summarize(node, idx, "seq")
			if diff := cmp.Diff(entry, got.Dropdown); diff != "" {
				t.Errorf("choice mismatch (-choice +summary):\n%s", diff)
			}
		})
	}
}

func TestSummarizeOrphan(t *testing.T) {
	for name, idx := range map[string]*resources.Index{
		"orphan in name set": fixture(),
		"no name set":        resources.Empty(),
	} {
		t.Run(name, func(t *testing.T) {
			var got resources.BindingSummary
			require.NotPanics(t, func() {
				got = Summarize(&script.Identifier{Label: "ghost"}, idx, "seq")
			})
			assert.Nil(t, got.Vector)
			assert.True(t, got.Orphan)
			assert.Equal(t, "ghost", got.Dropdown.Label)
			assert.False(t, got.IsDefault)
		})
	}
}

func TestSummarizeIdentifierFollowsOneLevel(t *testing.T) {
	idx := fixture()

	got := Summarize(&script.Identifier{Label: "Location variable 1"}, idx, "seq")
	assert.Equal(t, "Variable - Seeder (10, 20, 0)", got.Dropdown.Label)
	assert.Equal(t, vec(10, 20, 0), got.Vector)
	assert.False(t, got.Orphan)

	got = Summarize(&script.Identifier{Label: "parent"}, idx, "seq")
	assert.Equal(t, "Variable - Externally defined", got.Dropdown.Label)
	assert.Nil(t, got.Vector)
}

func TestSummarizeValues(t *testing.T) {
	idx := fixture()
	tests := []struct {
		name   string
		node   script.Node
		label  string
		vector *resources.Vector3
	}{
		{"coordinate", coord(1, 2.5, -3), "Coordinate (1, 2.5, -3)", vec(1, 2.5, -3)},
		{"mounted tool", &script.Tool{ToolID: 1}, "Seeder (10, 20, 0)", vec(10, 20, 0)},
		{"loose tool", &script.Tool{ToolID: 2}, "Weeder", nil},
		{"unknown tool", &script.Tool{ToolID: 99}, "Unknown tool", nil},
		{"plant", &script.Point{PointerType: "Plant", PointerID: 20}, "Tomato (1, 2, 3)", vec(1, 2, 3)},
		{"unknown point", &script.Point{PointerType: "Weed", PointerID: 1}, "Unknown point", nil},
		{"group", &script.PointGroup{PointGroupID: 5}, "Beds", nil},
		{"nothing", &script.Nothing{}, "None", nil},
		{"numeric", &script.Numeric{Number: 3}, "3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.node, idx, "seq")
			assert.Equal(t, tt.label, got.Dropdown.Label)
			assert.Equal(t, tt.vector, got.Vector)
			assert.False(t, got.IsDefault)
		})
	}
}

func TestSummarizeParameterDeclarationUsesDefault(t *testing.T) {
	idx := fixture()
	decl := &script.ParameterDeclaration{Label: "parent", DefaultValue: coord(1, 2, 3)}

	got := Summarize(decl, idx, "seq")
	assert.True(t, got.IsDefault)
	assert.Equal(t, vec(1, 2, 3), got.Vector)
	assert.Equal(t, &script.ParameterApplication{Label: "parent", DataValue: coord(1, 2, 3)}, got.Node)

	header := DeclarationSummary(decl, idx, "seq")
	assert.Equal(t, LabelExternallyDefined, header.Dropdown.Label)
	assert.Equal(t, "parent", header.Dropdown.Value.String())
	assert.Nil(t, header.Vector)
	assert.False(t, header.IsDefault)
}

func TestVarLabel(t *testing.T) {
	idx := fixture()
	assert.Equal(t, LabelExternallyDefined, VarLabel("parent", idx, "seq", true))
	assert.Equal(t, "Variable - Externally defined", VarLabel("parent", idx, "seq", false))
	assert.Equal(t, "Variable - Seeder (10, 20, 0)", VarLabel("Location variable 1", idx, "seq", false))
	assert.Equal(t, LabelAddNew, VarLabel("ghost", idx, "seq", false))
	assert.Equal(t, LabelAddNew, VarLabel("parent", idx, "other", false))
}

func TestDisplayVariables(t *testing.T) {
	idx := fixture()
	set := idx.Variables("seq")

	t.Run("header shows every declaration", func(t *testing.T) {
		got := DisplayVariables(set, nil, idx, "seq")
		require.Len(t, got, 2)
		assert.Equal(t, LabelExternallyDefined, got[0].Dropdown.Label)
		assert.Equal(t, "Seeder (10, 20, 0)", got[1].Dropdown.Label)
	})

	t.Run("step without applications shows defaults", func(t *testing.T) {
		got := DisplayVariables(set, StepApplications(&script.Step{StepKind: "execute"}), idx, "seq")
		require.Len(t, got, 1)
		assert.Equal(t, "parent", got[0].Label())
		assert.True(t, got[0].IsDefault)
		assert.Equal(t, vec(1, 2, 3), got[0].Vector)
		assert.Nil(t, got[0].Fallback)
	})

	t.Run("step application wins", func(t *testing.T) {
		step := &script.Step{StepKind: "execute", Body: []script.Node{
			&script.ParameterApplication{Label: "parent", DataValue: &script.Tool{ToolID: 2}},
			&script.ParameterApplication{Label: "unrelated", DataValue: coord(9, 9, 9)},
		}}
		got := DisplayVariables(set, StepApplications(step), idx, "seq")
		require.Len(t, got, 1)
		assert.Equal(t, "Weeder", got[0].Dropdown.Label)
		assert.False(t, got[0].IsDefault)
		assert.Same(t, step.Body[0], got[0].Node)
		require.NotNil(t, got[0].Fallback)
		assert.Equal(t, "Default value - Coordinate (1, 2, 3)", got[0].Fallback.Label)
	})
}

func TestStepApplicationsNeverNil(t *testing.T) {
	assert.NotNil(t, StepApplications(nil))
	assert.NotNil(t, StepApplications(&script.Step{StepKind: "execute"}))
}

func TestVariableItems(t *testing.T) {
	idx := fixture()
	parent := &script.ParameterDeclaration{Label: "parent"}

	assert.Nil(t, VariableItems(Variable, idx, "seq", parent, nil))

	got := VariableItems(Parameter, idx, "seq", parent, nil)
	want := []resources.DropdownEntry{{
		Label: LabelExternallyDefined, Value: resources.StringValue("parent"), HeadingID: HeadingVariable,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parameter items (-want +got):\n%s", diff)
	}

	existing := []resources.DropdownEntry{
		Parent("Variable - Externally defined"),
		{Label: "Variable - Seeder (10, 20, 0)", Value: resources.StringValue("Location variable 1"), HeadingID: HeadingVariable},
	}
	got = VariableItems(Identifier, idx, "seq", parent, flags(false))
	if diff := cmp.Diff(existing, got); diff != "" {
		t.Errorf("identifier items (-want +got):\n%s", diff)
	}

	got = VariableItems(Identifier, idx, "seq", parent, flags(true))
	want = append(existing, resources.DropdownEntry{
		Label: LabelAddNew, Value: resources.StringValue("Location variable 2"), HeadingID: HeadingVariable,
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("identifier items with multiple variables (-want +got):\n%s", diff)
	}

	got = VariableItems(Identifier, idx, "empty", parent, nil)
	if diff := cmp.Diff([]resources.DropdownEntry{{
		Label: LabelAddNew, Value: resources.StringValue("parent"), HeadingID: HeadingVariable,
	}}, got); diff != "" {
		t.Errorf("first variable item (-want +got):\n%s", diff)
	}
}

func labels(entries []resources.DropdownEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

func TestChoices(t *testing.T) {
	idx := fixture()

	got := labels(Choices(idx, nil, false))
	want := []string{
		"Coordinates", "Custom coordinates",
		"Tools and Seed Containers", "Seeder (10, 20, 0)", "Weeder",
		"Plants", "Tomato (1, 2, 3)",
		"Points", "Marker (4, 5, 6)",
		"Weeds", "Dandelion (7, 8, 9)",
		"Slots", "Slot (10, 20, 0)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("choices (-want +got):\n%s", diff)
	}

	withGroups := Choices(idx, []resources.DropdownEntry{Parent("Externally defined")}, true)
	assert.Equal(t, "Variables", withGroups[0].Label)
	assert.True(t, withGroups[0].Heading)
	assert.Equal(t, "Externally defined", withGroups[1].Label)
	assert.Equal(t, []string{"Groups", "Beds"}, labels(withGroups[len(withGroups)-2:]))
}

func TestBuildNameSet(t *testing.T) {
	idx := fixture()
	set := idx.Variables("seq")

	assert.Equal(t, []string{"parent", "Location variable 1", "ghost"}, set.Labels())
	assert.Equal(t, []string{"ghost"}, set.Orphans())

	s, ok := set.Get("Location variable 1")
	require.True(t, ok)
	assert.Equal(t, vec(10, 20, 0), s.Vector)
}

func TestReindexResolvesIdentifierDeclarations(t *testing.T) {
	seq := &script.Sequence{ID: "chain", Locals: &script.ScopeDeclaration{Body: []script.Variable{
		&script.VariableDeclaration{Label: "a", DataValue: &script.Identifier{Label: "b"}},
		&script.VariableDeclaration{Label: "b", DataValue: coord(1, 1, 1)},
	}}}

	single := BuildNameSet(seq, farm().WithSequence(seq))
	a, _ := single.Get("a")
	require.NotNil(t, a)
	assert.True(t, a.Orphan, "first pass cannot see b yet")

	idx := Reindex(farm(), seq)
	a, _ = idx.Variables("chain").Get("a")
	require.NotNil(t, a)
	assert.False(t, a.Orphan)
	assert.Equal(t, "Variable - Coordinate (1, 1, 1)", a.Dropdown.Label)
	assert.Equal(t, vec(1, 1, 1), a.Vector)
	assert.Empty(t, idx.Variables("chain").Orphans())
}

func TestReindexDoesNotMutateInput(t *testing.T) {
	base := farm()
	_ = Reindex(base, &script.Sequence{ID: "seq"})
	assert.Empty(t, base.SequenceIDs())
	assert.Nil(t, base.Variables("seq"))
}

func TestAddVariableScenario(t *testing.T) {
	idx := farm()
	seq := &script.Sequence{ID: "new"}

	label := scope.NextLabel(idx.Variables(seq.ID).Variables())
	require.Equal(t, "parent", label)

	decl := SelectionToNode(Selection{IdentifierLabel: label, Kind: Variable, Pick: NoValueSelected()})
	updated := scope.Declare(seq, decl)

	want := []script.Variable{&script.VariableDeclaration{Label: "parent", DataValue: coord(0, 0, 0)}}
	if diff := cmp.Diff(want, updated.Items()); diff != "" {
		t.Errorf("scope mismatch (-want +got):\n%s", diff)
	}

	idx = Reindex(idx, updated)
	s, ok := idx.FindVariable("new", "parent")
	require.True(t, ok)
	assert.Equal(t, vec(0, 0, 0), s.Vector)
}
