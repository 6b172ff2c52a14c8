package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opal-lang/seqscope/core/binding"
	"github.com/opal-lang/seqscope/core/resources"
)

// pickFlags are the mutually exclusive value flags of declare.
type pickFlags struct {
	tool     int
	point    string // Type:ID
	group    int
	coord    string // x,y,z
	variable string
	none     bool
}

// set reports whether any value flag was given.
func (p pickFlags) set() bool {
	return p.tool != 0 || p.point != "" || p.group != 0 || p.coord != "" || p.variable != "" || p.none
}

// entry converts the flags into the dropdown entry a user would pick.
// vector is non-nil for custom coordinates.
func (p pickFlags) entry() (resources.DropdownEntry, *resources.Vector3, error) {
	n := 0
	for _, given := range []bool{p.tool != 0, p.point != "", p.group != 0, p.coord != "", p.variable != "", p.none} {
		if given {
			n++
		}
	}
	if n > 1 {
		return resources.DropdownEntry{}, nil, &CLIError{
			Message: "more than one value given",
			Hint:    "Pass exactly one of --tool, --point, --group, --coord, --var or --none.",
		}
	}

	switch {
	case p.tool != 0:
		return idEntry(binding.HeadingTool, p.tool), nil, nil
	case p.group != 0:
		return idEntry(binding.HeadingPointGroup, p.group), nil, nil
	case p.point != "":
		kind, id, err := parsePoint(p.point)
		if err != nil {
			return resources.DropdownEntry{}, nil, err
		}
		return idEntry(kind, id), nil, nil
	case p.coord != "":
		v, err := parseVector(p.coord)
		if err != nil {
			return resources.DropdownEntry{}, nil, err
		}
		return binding.CustomCoordinates(), &v, nil
	case p.variable != "":
		return resources.DropdownEntry{
			Label:     p.variable,
			Value:     resources.StringValue(p.variable),
			HeadingID: binding.HeadingVariable,
		}, nil, nil
	}
	return binding.NoValueSelected(), nil, nil
}

func idEntry(heading string, id int) resources.DropdownEntry {
	return resources.DropdownEntry{Value: resources.NumberValue(float64(id)), HeadingID: heading}
}

// parsePoint reads "Plant:20".
func parsePoint(s string) (string, int, error) {
	kind, rawID, ok := strings.Cut(s, ":")
	if !ok {
		return "", 0, &CLIError{Message: fmt.Sprintf("invalid point %q", s), Hint: "Use Type:ID, for example Plant:20."}
	}
	known := false
	for _, t := range resources.PointTypes {
		if t == kind {
			known = true
			break
		}
	}
	if !known {
		return "", 0, &CLIError{
			Message: fmt.Sprintf("unknown point type %q", kind),
			Hint:    "Point types: " + strings.Join(resources.PointTypes, ", "),
		}
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return "", 0, &CLIError{Message: fmt.Sprintf("invalid point id %q", rawID)}
	}
	return kind, id, nil
}

// parseVector reads "x,y,z".
func parseVector(s string) (resources.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return resources.Vector3{}, &CLIError{Message: fmt.Sprintf("invalid coordinate %q", s), Hint: "Use x,y,z, for example 100,200,0."}
	}
	var xyz [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return resources.Vector3{}, &CLIError{Message: fmt.Sprintf("invalid coordinate %q", s), Details: err.Error()}
		}
		xyz[i] = f
	}
	return resources.Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parsePath reads a step path such as "0.2.1".
func parsePath(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	path := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, &CLIError{Message: fmt.Sprintf("invalid step path %q", s), Hint: "Use dot-separated body indexes, for example 0 or 2.1."}
		}
		path[i] = n
	}
	return path, nil
}
