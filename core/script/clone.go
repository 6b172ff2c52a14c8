package script

import "github.com/opal-lang/seqscope/core/invariant"

// Clone returns a deep copy of n. Editors clone before they change anything,
// so a caller's tree is never mutated in place.
func Clone(n Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Sequence:
		return CloneSequence(n)
	case *ScopeDeclaration:
		return cloneScope(n)
	case *ParameterDeclaration:
		return &ParameterDeclaration{Label: n.Label, DefaultValue: Clone(n.DefaultValue)}
	case *VariableDeclaration:
		return &VariableDeclaration{Label: n.Label, DataValue: Clone(n.DataValue)}
	case *ParameterApplication:
		return &ParameterApplication{Label: n.Label, DataValue: Clone(n.DataValue)}
	case *Identifier:
		c := *n
		return &c
	case *Coordinate:
		c := *n
		return &c
	case *Tool:
		c := *n
		return &c
	case *Point:
		c := *n
		return &c
	case *PointGroup:
		c := *n
		return &c
	case *Nothing:
		return &Nothing{}
	case *Numeric:
		c := *n
		return &c
	case *Text:
		c := *n
		return &c
	case *Lua:
		c := *n
		return &c
	case *Step:
		return cloneStep(n)
	default:
		invariant.Unreachable("clone: unhandled node %T", n)
		return nil
	}
}

// CloneSequence deep-copies a sequence, keeping nil-ness of the scope and
// its body so an absent body stays absent.
func CloneSequence(s *Sequence) *Sequence {
	if s == nil {
		return nil
	}
	out := &Sequence{
		ID:      s.ID,
		Name:    s.Name,
		Version: s.Version,
		Locals:  cloneScope(s.Locals),
		Body:    cloneNodes(s.Body),
		Args:    cloneArgs(s.Args),
	}
	return out
}

// CloneVariable deep-copies a declaration or application.
func CloneVariable(v Variable) Variable {
	if v == nil {
		return nil
	}
	return Clone(v).(Variable)
}

// CloneVariables deep-copies a declaration list. A nil list stays nil.
func CloneVariables(vars []Variable) []Variable {
	if vars == nil {
		return nil
	}
	out := make([]Variable, len(vars))
	for i, v := range vars {
		out[i] = CloneVariable(v)
	}
	return out
}

func cloneScope(s *ScopeDeclaration) *ScopeDeclaration {
	if s == nil {
		return nil
	}
	return &ScopeDeclaration{Body: CloneVariables(s.Body)}
}

func cloneStep(s *Step) *Step {
	return &Step{StepKind: s.StepKind, Args: cloneArgs(s.Args), Body: cloneNodes(s.Body)}
}

func cloneArgs(args []Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = Arg{Name: a.Name, Node: Clone(a.Node), Scalar: a.Scalar}
	}
	return out
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(n)
	}
	return out
}
