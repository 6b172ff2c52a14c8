package binding

import (
	"encoding/json"

	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/script"
)

// Selection is what the user picked for one variable.
type Selection struct {
	// IdentifierLabel is the label of the variable being edited.
	IdentifierLabel string
	Kind            Kind
	Pick            resources.DropdownEntry
	// Vector holds the coordinate input boxes. It is read when Pick is the
	// custom coordinates item.
	Vector *resources.Vector3
}

// SelectionToNode builds the variable node for sel. It never fails: picks
// it cannot place (headings, unknown heading ids) count as nothing selected.
func SelectionToNode(sel Selection) script.Variable {
	return wrap(sel.Kind, sel.IdentifierLabel, selectedValue(sel))
}

func selectedValue(sel Selection) script.Node {
	pick := sel.Pick
	if pick.IsNull || pick.Heading {
		return nothingFor(sel.Kind)
	}

	switch {
	case pick.HeadingID == HeadingVariable:
		label := pick.Value.String()
		if sel.Kind == Parameter && label == sel.IdentifierLabel {
			// The header's own item: the value is supplied by callers.
			return zeroCoordinate()
		}
		return &script.Identifier{Label: label}

	case pick.HeadingID == HeadingCoordinate:
		if c, ok := decodeCoordinate(pick.Value); ok {
			return c
		}
		if sel.Vector != nil {
			return &script.Coordinate{X: sel.Vector.X, Y: sel.Vector.Y, Z: sel.Vector.Z}
		}
		return zeroCoordinate()

	case pick.HeadingID == HeadingTool:
		if id, ok := pick.Value.Int(); ok {
			return &script.Tool{ToolID: id}
		}

	case pick.HeadingID == HeadingPointGroup:
		if id, ok := pick.Value.Int(); ok {
			return &script.PointGroup{PointGroupID: id}
		}

	case isPointHeading(pick.HeadingID):
		if id, ok := pick.Value.Int(); ok {
			return &script.Point{PointerType: pick.HeadingID, PointerID: id}
		}
	}

	return nothingFor(sel.Kind)
}

// nothingFor is the value a cleared selection produces: an empty reference
// for step-local applications, the origin for header declarations.
func nothingFor(kind Kind) script.Node {
	if kind == Identifier {
		return &script.Nothing{}
	}
	return zeroCoordinate()
}

func zeroCoordinate() *script.Coordinate { return &script.Coordinate{} }

func decodeCoordinate(v resources.DropdownValue) (*script.Coordinate, bool) {
	if v.Numeric || v.Text == "" {
		return nil, false
	}
	var vec resources.Vector3
	if err := json.Unmarshal([]byte(v.Text), &vec); err != nil {
		return nil, false
	}
	return &script.Coordinate{X: vec.X, Y: vec.Y, Z: vec.Z}, true
}
