package binding

import (
	"fmt"

	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/script"
)

// Summarize computes the display summary of node against a snapshot.
//
// Declarations and applications summarize their bound value. A parameter
// declaration is shown through its default value with IsDefault set. An
// identifier is looked up once in the sequence's name set; when it has no
// target the summary is an orphan with no vector. Summarize never fails.
func Summarize(node script.Node, idx *resources.Index, scriptID string) resources.BindingSummary {
	invariant.NotNil(idx, "index")

	switch n := node.(type) {
	case *script.ParameterDeclaration:
		return DefaultSummary(n, idx, scriptID)
	case *script.VariableDeclaration, *script.ParameterApplication:
		s := summarizeValue(n.(script.Variable).Value(), idx, scriptID)
		s.Node = n
		return s
	default:
		s := summarizeValue(node, idx, scriptID)
		s.Node = node
		return s
	}
}

// DefaultSummary shows a parameter declaration as the application of its
// default value, flagged IsDefault so a form can warn that no caller
// supplied a value.
func DefaultSummary(p *script.ParameterDeclaration, idx *resources.Index, scriptID string) resources.BindingSummary {
	converted := &script.ParameterApplication{Label: p.Label, DataValue: p.DefaultValue}
	s := summarizeValue(converted.DataValue, idx, scriptID)
	s.Node = converted
	s.IsDefault = true
	return s
}

// DeclarationSummary is the header view of a declaration, the form stored
// in name sets. A parameter declaration reads as externally defined and has
// no vector until a caller binds it.
func DeclarationSummary(v script.Variable, idx *resources.Index, scriptID string) resources.BindingSummary {
	if p, ok := v.(*script.ParameterDeclaration); ok {
		return resources.BindingSummary{
			Node: p,
			Dropdown: resources.DropdownEntry{
				Label:     LabelExternallyDefined,
				Value:     resources.StringValue(p.Label),
				HeadingID: HeadingVariable,
			},
		}
	}
	return Summarize(v, idx, scriptID)
}

func summarizeValue(value script.Node, idx *resources.Index, scriptID string) resources.BindingSummary {
	switch v := value.(type) {
	case nil, *script.Nothing:
		return resources.BindingSummary{Dropdown: NoValueSelected()}

	case *script.Coordinate:
		vec := resources.VectorOf(v)
		return resources.BindingSummary{Dropdown: coordinateEntry(*vec), Vector: vec}

	case *script.Identifier:
		target, _ := idx.FindVariable(scriptID, v.Label)
		entry := resources.DropdownEntry{
			Value:     resources.StringValue(v.Label),
			HeadingID: HeadingVariable,
		}
		if target == nil {
			entry.Label = v.Label
			return resources.BindingSummary{Dropdown: entry, Orphan: true}
		}
		entry.Label = VarLabel(v.Label, idx, scriptID, false)
		return resources.BindingSummary{Dropdown: entry, Vector: copyVector(target.Vector)}

	case *script.Tool:
		return resources.BindingSummary{Dropdown: toolEntry(v.ToolID, idx), Vector: toolVector(v.ToolID, idx)}

	case *script.Point:
		p, ok := idx.Point(v.PointerType, v.PointerID)
		if !ok {
			return resources.BindingSummary{Dropdown: resources.DropdownEntry{
				Label:     LabelUnknownPoint,
				Value:     resources.NumberValue(float64(v.PointerID)),
				HeadingID: v.PointerType,
			}}
		}
		return resources.BindingSummary{Dropdown: pointEntry(p), Vector: p.Vector()}

	case *script.PointGroup:
		return resources.BindingSummary{Dropdown: groupEntry(v.PointGroupID, idx)}

	case *script.Numeric, *script.Text, *script.Lua, *script.Step,
		*script.Sequence, *script.ScopeDeclaration,
		*script.ParameterDeclaration, *script.VariableDeclaration, *script.ParameterApplication:
		// Not a location value; show it verbatim without a selectable value.
		return resources.BindingSummary{Dropdown: resources.DropdownEntry{
			Label: v.String(),
			Value: resources.StringValue(""),
		}}
	}

	invariant.Unreachable("summarize: unhandled node %T", value)
	return resources.BindingSummary{}
}

// VarLabel is the dropdown label of the variable item for label.
// forceExternal is set for the header form, where the item means "the
// caller supplies this value".
func VarLabel(label string, idx *resources.Index, scriptID string, forceExternal bool) string {
	if forceExternal {
		return LabelExternallyDefined
	}
	target, _ := idx.FindVariable(scriptID, label)
	if target == nil {
		return LabelAddNew
	}
	switch target.Node.(type) {
	case *script.ParameterDeclaration:
		return LabelVariable + " - " + LabelExternallyDefined
	case *script.ParameterApplication:
		return target.Dropdown.Label
	default:
		return LabelVariable + " - " + target.Dropdown.Label
	}
}

func toolEntry(id int, idx *resources.Index) resources.DropdownEntry {
	entry := resources.DropdownEntry{
		Label:     LabelUnknownTool,
		Value:     resources.NumberValue(float64(id)),
		HeadingID: HeadingTool,
	}
	if t, ok := idx.Tool(id); ok {
		entry.Label = t.Name
		if slot, ok := idx.SlotFor(id); ok {
			entry.Label = fmt.Sprintf("%s %s", t.Name, *slot.Vector())
		}
	}
	return entry
}

func toolVector(id int, idx *resources.Index) *resources.Vector3 {
	if slot, ok := idx.SlotFor(id); ok {
		return slot.Vector()
	}
	return nil
}

func pointEntry(p resources.MapPoint) resources.DropdownEntry {
	return resources.DropdownEntry{
		Label:     fmt.Sprintf("%s %s", p.Name, *p.Vector()),
		Value:     resources.NumberValue(float64(p.ID)),
		HeadingID: p.Type,
	}
}

func groupEntry(id int, idx *resources.Index) resources.DropdownEntry {
	entry := resources.DropdownEntry{
		Label:     LabelUnknownGroup,
		Value:     resources.NumberValue(float64(id)),
		HeadingID: HeadingPointGroup,
	}
	if g, ok := idx.Group(id); ok {
		entry.Label = g.Name
	}
	return entry
}

func copyVector(v *resources.Vector3) *resources.Vector3 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
