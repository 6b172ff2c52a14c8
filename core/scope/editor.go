// Package scope edits a sequence's header scope: upserting and removing
// declarations, generating fresh labels, and refusing to remove a variable
// the step tree still reads.
package scope

import (
	"errors"
	"fmt"

	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/script"
)

// ErrVariableInUse is matched by every *VariableInUseError.
var ErrVariableInUse = errors.New("variable in use")

// InUseMessage is the user-facing refusal text.
const InUseMessage = "This variable is currently being used and cannot be deleted."

// VariableInUseError refuses a removal because Label is still referenced.
type VariableInUseError struct {
	Label string
}

func (e *VariableInUseError) Error() string {
	return fmt.Sprintf("cannot delete %q: %s", e.Label, InUseMessage)
}

// Is lets errors.Is(err, ErrVariableInUse) match.
func (e *VariableInUseError) Is(target error) bool {
	return target == ErrVariableInUse
}

// Upsert replaces the declaration whose label matches item in place, or
// appends item when no declaration has that label. decls is not modified;
// unrelated declarations keep their positions.
func Upsert(decls []script.Variable, item script.Variable) []script.Variable {
	invariant.NotNil(item, "item")

	out := make([]script.Variable, 0, len(decls)+1)
	replaced := false
	for _, d := range decls {
		if d != nil && d.Name() == item.Name() {
			if replaced {
				// Collapse a duplicate left behind by older writers.
				continue
			}
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, d)
	}
	if !replaced {
		out = append(out, item)
	}

	invariant.Postcondition(countLabel(out, item.Name()) == 1, "label %q must appear once after upsert", item.Name())
	return out
}

// UpsertApplications applies the Upsert policy to step-local parameter
// applications, such as an execute step's body or a regimen's body variables.
func UpsertApplications(apps []*script.ParameterApplication, item *script.ParameterApplication) []*script.ParameterApplication {
	invariant.NotNil(item, "item")

	out := make([]*script.ParameterApplication, 0, len(apps)+1)
	replaced := false
	for _, a := range apps {
		if a != nil && a.Label == item.Label {
			if !replaced {
				out = append(out, item)
				replaced = true
			}
			continue
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, item)
	}
	return out
}

// Declare returns a copy of seq whose header scope has item upserted.
// A missing scope declaration is created.
func Declare(seq *script.Sequence, item script.Variable) *script.Sequence {
	invariant.NotNil(seq, "sequence")

	next := script.CloneSequence(seq)
	if next.Locals == nil {
		next.Locals = &script.ScopeDeclaration{}
	}
	next.Locals.Body = Upsert(next.Locals.Body, script.CloneVariable(item))
	return next
}

// Remove returns a copy of seq without the declaration labelled label.
//
// If the step tree still references label, Remove returns seq itself and a
// *VariableInUseError. An absent scope body is treated as empty and comes
// back as an empty, non-nil body. Removing a label that is not declared is
// not an error.
func Remove(seq *script.Sequence, label string) (*script.Sequence, error) {
	invariant.NotNil(seq, "sequence")

	if IsReferenced(seq.Body, label) {
		return seq, &VariableInUseError{Label: label}
	}

	next := script.CloneSequence(seq)
	if next.Locals == nil {
		next.Locals = &script.ScopeDeclaration{}
	}
	kept := make([]script.Variable, 0, len(next.Locals.Body))
	for _, d := range next.Locals.Body {
		if d != nil && d.Name() != label {
			kept = append(kept, d)
		}
	}
	next.Locals.Body = kept
	return next, nil
}

func countLabel(decls []script.Variable, label string) int {
	n := 0
	for _, d := range decls {
		if d != nil && d.Name() == label {
			n++
		}
	}
	return n
}
