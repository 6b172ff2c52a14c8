package editor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/opal-lang/seqscope/core/binding"
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
)

// StepKindExecute is the step that calls another sequence.
const StepKindExecute = "execute"

// SelectStep binds a variable of the sequence an execute step calls. path
// locates the step: path[0] indexes the sequence body, later entries index
// nested step bodies. The application shadows the called sequence's
// parameter for this call only; an existing application for the same label
// is replaced in place.
func (e *Editor) SelectStep(ctx context.Context, scriptID string, path []int, sel binding.Selection) (*Result, error) {
	if sel.Kind != binding.Identifier {
		return nil, &EditError{
			Message:    fmt.Sprintf("cannot bind %q on a step with the %s kind", sel.IdentifierLabel, sel.Kind),
			Context:    "select step",
			Suggestion: "Step-local bindings use the identifier kind.",
		}
	}

	return e.apply(ctx, "select step", scriptID, func(seq *script.Sequence, idx *resources.Index) (*resolution, error) {
		updated := script.CloneSequence(seq)
		step, err := stepAt(updated, path)
		if err != nil {
			return nil, err
		}
		calleeID, err := callee(step)
		if err != nil {
			return nil, err
		}
		if err := e.checkParameter(idx, calleeID, sel.IdentifierLabel); err != nil {
			return nil, err
		}

		app := binding.SelectionToNode(sel).(*script.ParameterApplication)
		setApplications(step, scope.UpsertApplications(binding.StepApplications(step), app))
		e.logger.Debug("bound step variable", "script", scriptID, "callee", calleeID, "label", app.Label)

		return &resolution{
			updated: updated,
			summaries: func(idx *resources.Index) []resources.BindingSummary {
				return binding.DisplayVariables(idx.Variables(calleeID), binding.StepApplications(step), idx, calleeID)
			},
		}, nil
	})
}

// StepVariables is the step view of the sequence an execute step calls,
// read from the current snapshot without editing anything.
func (e *Editor) StepVariables(scriptID string, path []int) ([]resources.BindingSummary, error) {
	idx := e.snapshots.Current()
	seq, ok := idx.Sequence(scriptID)
	if !ok {
		return nil, unknownSequence(scriptID, "step variables", idx.SequenceIDs())
	}
	step, err := stepAt(seq, path)
	if err != nil {
		return nil, err
	}
	calleeID, err := callee(step)
	if err != nil {
		return nil, err
	}
	if _, ok := idx.Sequence(calleeID); !ok {
		return nil, unknownSequence(calleeID, "step variables", idx.SequenceIDs())
	}
	return binding.DisplayVariables(idx.Variables(calleeID), binding.StepApplications(step), idx, calleeID), nil
}

func (e *Editor) checkParameter(idx *resources.Index, calleeID, label string) error {
	target, ok := idx.Sequence(calleeID)
	if !ok {
		return unknownSequence(calleeID, "select step", idx.SequenceIDs())
	}
	var params []string
	for _, d := range target.Items() {
		if p, ok := d.(*script.ParameterDeclaration); ok {
			if p.Label == label {
				return nil
			}
			params = append(params, p.Label)
		}
	}
	err := &EditError{
		Message: fmt.Sprintf("sequence %s has no parameter %q", calleeID, label),
		Context: "select step",
	}
	if closest := findClosestMatch(label, params); closest != "" {
		err.Suggestion = fmt.Sprintf("Did you mean '%s'?", closest)
	} else if len(params) == 0 {
		err.Suggestion = "The called sequence declares no parameters."
	}
	return err
}

func stepAt(seq *script.Sequence, path []int) (*script.Step, error) {
	if len(path) == 0 {
		return nil, &EditError{Message: "empty step path", Context: "select step"}
	}
	body := seq.Body
	var step *script.Step
	for depth, i := range path {
		if i < 0 || i >= len(body) {
			return nil, &EditError{
				Message: fmt.Sprintf("step path %s: index %d out of range at depth %d", formatPath(path), i, depth),
				Context: "select step",
			}
		}
		s, ok := body[i].(*script.Step)
		if !ok {
			return nil, &EditError{
				Message: fmt.Sprintf("step path %s: %s is not a step", formatPath(path[:depth+1]), body[i].Kind()),
				Context: "select step",
			}
		}
		step = s
		body = s.Body
	}
	return step, nil
}

func callee(step *script.Step) (string, error) {
	if step.StepKind != StepKindExecute {
		return "", &EditError{
			Message:    fmt.Sprintf("%s steps do not call a sequence", step.StepKind),
			Context:    "select step",
			Suggestion: "Point the path at an execute step.",
		}
	}
	arg, ok := step.Arg("sequence_id")
	if !ok || arg.Scalar == nil {
		return "", &EditError{Message: "execute step has no sequence_id", Context: "select step"}
	}
	return fmt.Sprint(arg.Scalar), nil
}

// setApplications writes apps back into the step body. They take the slot
// of the first existing application; steps without one get them appended.
// Other nodes keep their order.
func setApplications(step *script.Step, apps []*script.ParameterApplication) {
	body := make([]script.Node, 0, len(step.Body)+1)
	placed := false
	for _, n := range step.Body {
		if _, ok := n.(*script.ParameterApplication); ok {
			if !placed {
				for _, a := range apps {
					body = append(body, a)
				}
				placed = true
			}
			continue
		}
		body = append(body, n)
	}
	if !placed {
		for _, a := range apps {
			body = append(body, a)
		}
	}
	step.Body = body
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}
