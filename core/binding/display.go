package binding

import (
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
)

// StepApplications returns the step-local applications in a step's body.
// The result is never nil, so it always selects the step context of
// DisplayVariables.
func StepApplications(step *script.Step) []*script.ParameterApplication {
	apps := []*script.ParameterApplication{}
	if step == nil {
		return apps
	}
	for _, n := range step.Body {
		if a, ok := n.(*script.ParameterApplication); ok {
			apps = append(apps, a)
		}
	}
	return apps
}

// ApplyStepOverride returns the summary to display for one variable. When
// bodyVariables holds an application with the same label, that application
// wins and the header default survives only as the Fallback annotation.
func ApplyStepOverride(summary resources.BindingSummary, bodyVariables []*script.ParameterApplication, idx *resources.Index, scriptID string) resources.BindingSummary {
	label := summary.Label()
	for _, app := range bodyVariables {
		if app == nil || app.Label != label {
			continue
		}
		out := Summarize(app, idx, scriptID)
		if summary.IsDefault {
			fallback := summary.Dropdown
			fallback.Label = LabelDefaultValue + " - " + fallback.Label
			out.Fallback = &fallback
		}
		return out
	}
	return summary
}

// DisplayVariables lists the variable forms to show for a sequence.
//
// A nil bodyVariables is the sequence header: every declared variable is
// shown as declared. Otherwise this is a step (an execute step or regimen
// item) calling the sequence: only parameter declarations are shown, each
// through its default value unless the step supplies an application.
func DisplayVariables(set *resources.VariableNameSet, bodyVariables []*script.ParameterApplication, idx *resources.Index, scriptID string) []resources.BindingSummary {
	var out []resources.BindingSummary
	for _, s := range set.Summaries() {
		if bodyVariables == nil {
			out = append(out, *s)
			continue
		}
		p, ok := s.Node.(*script.ParameterDeclaration)
		if !ok {
			continue
		}
		out = append(out, ApplyStepOverride(DefaultSummary(p, idx, scriptID), bodyVariables, idx, scriptID))
	}
	return out
}

// VariableItems is the variable section of a form's dropdown.
//
// Direct-value declarations cannot point at variables. A header parameter
// only offers itself, meaning "the caller supplies this". A step-local
// application offers every variable of the sequence plus a fresh label,
// the latter only while multiple variables are allowed or none exist yet.
func VariableItems(kind Kind, idx *resources.Index, scriptID string, variable script.Variable, flags FeatureFlags) []resources.DropdownEntry {
	switch kind {
	case Variable:
		return nil
	case Parameter:
		return []resources.DropdownEntry{{
			Label:     VarLabel(variable.Name(), idx, scriptID, true),
			Value:     resources.StringValue(variable.Name()),
			HeadingID: HeadingVariable,
		}}
	}

	existing := idx.Variables(scriptID).Variables()
	items := make([]resources.DropdownEntry, 0, len(existing)+1)
	for _, v := range existing {
		items = append(items, resources.DropdownEntry{
			Label:     VarLabel(v.Name(), idx, scriptID, false),
			Value:     resources.StringValue(v.Name()),
			HeadingID: HeadingVariable,
		})
	}
	if multipleVariables(flags) || len(existing) == 0 {
		next := scope.NextLabel(existing)
		items = append(items, resources.DropdownEntry{
			Label:     VarLabel(next, idx, scriptID, false),
			Value:     resources.StringValue(next),
			HeadingID: HeadingVariable,
		})
	}
	return items
}

// Choices is the full dropdown list: variable items, coordinates, tools,
// points by type and, when displayGroups is set, point groups. Each
// non-empty section starts with its heading entry.
func Choices(idx *resources.Index, variableItems []resources.DropdownEntry, displayGroups bool) []resources.DropdownEntry {
	var out []resources.DropdownEntry
	section := func(headingID string, items []resources.DropdownEntry) {
		if len(items) == 0 {
			return
		}
		out = append(out, Heading(headingID))
		out = append(out, items...)
	}

	section(HeadingVariable, variableItems)
	section(HeadingCoordinate, []resources.DropdownEntry{CustomCoordinates()})

	var tools []resources.DropdownEntry
	for _, t := range idx.Tools() {
		tools = append(tools, toolEntry(t.ID, idx))
	}
	section(HeadingTool, tools)

	for _, kind := range resources.PointTypes {
		var points []resources.DropdownEntry
		for _, p := range idx.Points(kind) {
			points = append(points, pointEntry(p))
		}
		section(kind, points)
	}

	if displayGroups {
		var groups []resources.DropdownEntry
		for _, g := range idx.Groups() {
			groups = append(groups, groupEntry(g.ID, idx))
		}
		section(HeadingPointGroup, groups)
	}
	return out
}
