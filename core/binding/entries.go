package binding

import (
	"encoding/json"
	"fmt"

	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
)

// Heading ids. Point entries use their pointer type (resources.PointPlant, ...)
// as the heading id.
const (
	HeadingVariable   = "Variable"
	HeadingCoordinate = "Coordinate"
	HeadingTool       = "Tool"
	HeadingPointGroup = "PointGroup"
)

// Display strings shared with the rendering collaborator.
const (
	LabelExternallyDefined = "Externally defined"
	LabelAddNew            = "Add new"
	LabelCustomCoordinates = "Custom coordinates"
	LabelNone              = "None"
	LabelDefaultValue      = "Default value"
	LabelVariable          = "Variable"
	LabelUnknownTool       = "Unknown tool"
	LabelUnknownPoint      = "Unknown point"
	LabelUnknownGroup      = "Unknown group"
)

var headingLabels = map[string]string{
	HeadingVariable:               "Variables",
	HeadingCoordinate:             "Coordinates",
	HeadingTool:                   "Tools and Seed Containers",
	resources.PointPlant:          "Plants",
	resources.PointGenericPointer: "Points",
	resources.PointWeed:           "Weeds",
	resources.PointToolSlot:       "Slots",
	HeadingPointGroup:             "Groups",
}

// NoValueSelected is the sentinel entry for "nothing selected".
func NoValueSelected() resources.DropdownEntry {
	return resources.DropdownEntry{Label: LabelNone, Value: resources.StringValue(""), IsNull: true}
}

// Parent is the variable item for the "parent" label shown as label.
func Parent(label string) resources.DropdownEntry {
	return resources.DropdownEntry{
		Label:     label,
		Value:     resources.StringValue(scope.ParentLabel),
		HeadingID: HeadingVariable,
	}
}

// CustomCoordinates is the item that takes its value from the coordinate
// input boxes.
func CustomCoordinates() resources.DropdownEntry {
	return resources.DropdownEntry{
		Label:     LabelCustomCoordinates,
		Value:     resources.StringValue(""),
		HeadingID: HeadingCoordinate,
	}
}

// Heading is the group header entry for headingID.
func Heading(headingID string) resources.DropdownEntry {
	label, ok := headingLabels[headingID]
	if !ok {
		label = headingID
	}
	return resources.DropdownEntry{
		Label:     label,
		Value:     resources.NumberValue(0),
		HeadingID: headingID,
		Heading:   true,
	}
}

// coordinateEntry renders a literal coordinate. The value carries the
// vector so the entry alone converts back to the same coordinate.
func coordinateEntry(v resources.Vector3) resources.DropdownEntry {
	data, _ := json.Marshal(v)
	return resources.DropdownEntry{
		Label:     fmt.Sprintf("Coordinate %s", v),
		Value:     resources.StringValue(string(data)),
		HeadingID: HeadingCoordinate,
	}
}

func isPointHeading(headingID string) bool {
	for _, t := range resources.PointTypes {
		if t == headingID {
			return true
		}
	}
	return false
}
