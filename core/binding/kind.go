// Package binding translates between the three views of a variable's value:
// what a user picked in a dropdown (a Selection), the node stored in the
// sequence tree, and the displayable BindingSummary.
//
// SelectionToNode and Summarize are inverses: the dropdown entry of any
// summary, fed back as a selection under the same Kind, yields a node that
// summarizes to the same label, value and vector.
package binding

import (
	"fmt"

	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/script"
)

// Kind selects which variable node an edit produces.
type Kind int

const (
	// Parameter edits a header declaration that callers may override.
	Parameter Kind = iota
	// Variable edits a header declaration bound to a direct value.
	Variable
	// Identifier edits a step-local application.
	Identifier
)

func (k Kind) String() string {
	switch k {
	case Parameter:
		return "parameter"
	case Variable:
		return "variable"
	case Identifier:
		return "identifier"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "parameter":
		return Parameter, nil
	case "variable":
		return Variable, nil
	case "identifier":
		return Identifier, nil
	}
	return 0, fmt.Errorf("unknown kind policy %q (want parameter, variable or identifier)", s)
}

// FeatureFlags is the narrow view of feature-flag lookup the resolver needs.
type FeatureFlags interface {
	// MultipleVariables reports whether a sequence may declare more than one variable.
	MultipleVariables() bool
}

func multipleVariables(flags FeatureFlags) bool {
	return flags != nil && flags.MultipleVariables()
}

// wrap binds value to label in the node shape kind asks for.
func wrap(kind Kind, label string, value script.Node) script.Variable {
	switch kind {
	case Parameter:
		return &script.ParameterDeclaration{Label: label, DefaultValue: value}
	case Variable:
		return &script.VariableDeclaration{Label: label, DataValue: value}
	case Identifier:
		return &script.ParameterApplication{Label: label, DataValue: value}
	}
	invariant.Unreachable("unknown kind policy %v", kind)
	return nil
}
