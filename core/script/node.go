// Package script defines the sequence tree that seqscope edits.
//
// A sequence is a tree of nodes. The header scope (Sequence.Locals) declares
// named variables; steps deeper in the tree refer to them by Identifier.
// Node is a closed sum type: every concrete node lives in this package and
// implements the unexported isNode marker, so callers outside the package
// cannot add variants behind the Visitor's back.
package script

import (
	"fmt"
	"strings"
)

// Node kinds as they appear on the wire.
const (
	KindSequence             = "sequence"
	KindScopeDeclaration     = "scope_declaration"
	KindParameterDeclaration = "parameter_declaration"
	KindVariableDeclaration  = "variable_declaration"
	KindParameterApplication = "parameter_application"
	KindIdentifier           = "identifier"
	KindCoordinate           = "coordinate"
	KindTool                 = "tool"
	KindPoint                = "point"
	KindPointGroup           = "point_group"
	KindNothing              = "nothing"
	KindNumeric              = "numeric"
	KindText                 = "text"
	KindLua                  = "lua"
)

// Node is any node in a sequence tree.
type Node interface {
	// Kind returns the wire discriminant.
	Kind() string
	// Accept dispatches to the matching Visitor method and walks children.
	// It returns false if the visitor stopped the walk.
	Accept(v Visitor) bool
	String() string
	isNode()
}

// Variable is a node that binds a label: a header declaration or a
// step-local application.
type Variable interface {
	Node
	// Name returns the bound label.
	Name() string
	// Value returns the bound value (default_value for parameter declarations).
	Value() Node
	isVariable()
}

// Sequence is the root of a script.
type Sequence struct {
	ID      string // stable identity used by the resource index
	Name    string
	Version int
	Locals  *ScopeDeclaration
	Body    []Node
	// Args holds the sequence args this package does not model (color,
	// description, ...), sorted by name.
	Args []Arg
}

// ScopeDeclaration is the header scope of a sequence.
// A nil Body is an absent body and behaves as empty.
type ScopeDeclaration struct {
	Body []Variable
}

// ParameterDeclaration declares a variable supplied by the caller, with a
// literal fallback used when no application overrides it.
type ParameterDeclaration struct {
	Label        string
	DefaultValue Node
}

// VariableDeclaration declares a variable bound to a concrete value.
type VariableDeclaration struct {
	Label     string
	DataValue Node
}

// ParameterApplication binds a value to a declared label at a single use
// site, shadowing the header declaration there.
type ParameterApplication struct {
	Label     string
	DataValue Node
}

// Identifier refers to a variable by label.
type Identifier struct {
	Label string
}

// Coordinate is a literal position.
type Coordinate struct {
	X, Y, Z float64
}

// Tool points at a tool resource.
type Tool struct {
	ToolID int
}

// Point points at a map point resource. PointerType is one of
// "Plant", "GenericPointer", "Weed" or "ToolSlot".
type Point struct {
	PointerType string
	PointerID   int
}

// PointGroup points at a group of points.
type PointGroup struct {
	PointGroupID int
}

// Nothing is the "no value selected" sentinel.
type Nothing struct{}

// Numeric is a literal number operand.
type Numeric struct {
	Number float64
}

// Text is a literal string operand.
type Text struct {
	Content string
}

// Lua is an embedded Lua expression. Lua code can read variables through
// variable("label"), so it takes part in usage scanning.
type Lua struct {
	Code string
}

// Step is any other node shape: move, move_absolute, axis_overwrite,
// execute, _if and so on. Args are kept sorted by name.
type Step struct {
	StepKind string
	Args     []Arg
	Body     []Node
}

// Arg is one named step argument. Exactly one of Node and Scalar is set.
type Arg struct {
	Name   string
	Node   Node
	Scalar any
}

// Arg returns the named argument.
func (s *Step) Arg(name string) (Arg, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// Items returns the declaration list, or nil when the scope or its body is absent.
func (s *Sequence) Items() []Variable {
	if s == nil || s.Locals == nil {
		return nil
	}
	return s.Locals.Body
}

// Declaration finds a header declaration by label.
func (s *Sequence) Declaration(label string) (Variable, bool) {
	for _, v := range s.Items() {
		if v.Name() == label {
			return v, true
		}
	}
	return nil, false
}

func (*Sequence) Kind() string             { return KindSequence }
func (*ScopeDeclaration) Kind() string     { return KindScopeDeclaration }
func (*ParameterDeclaration) Kind() string { return KindParameterDeclaration }
func (*VariableDeclaration) Kind() string  { return KindVariableDeclaration }
func (*ParameterApplication) Kind() string { return KindParameterApplication }
func (*Identifier) Kind() string           { return KindIdentifier }
func (*Coordinate) Kind() string           { return KindCoordinate }
func (*Tool) Kind() string                 { return KindTool }
func (*Point) Kind() string                { return KindPoint }
func (*PointGroup) Kind() string           { return KindPointGroup }
func (*Nothing) Kind() string              { return KindNothing }
func (*Numeric) Kind() string              { return KindNumeric }
func (*Text) Kind() string                 { return KindText }
func (*Lua) Kind() string                  { return KindLua }
func (s *Step) Kind() string               { return s.StepKind }

func (*Sequence) isNode()             {}
func (*ScopeDeclaration) isNode()     {}
func (*ParameterDeclaration) isNode() {}
func (*VariableDeclaration) isNode()  {}
func (*ParameterApplication) isNode() {}
func (*Identifier) isNode()           {}
func (*Coordinate) isNode()           {}
func (*Tool) isNode()                 {}
func (*Point) isNode()                {}
func (*PointGroup) isNode()           {}
func (*Nothing) isNode()              {}
func (*Numeric) isNode()              {}
func (*Text) isNode()                 {}
func (*Lua) isNode()                  {}
func (*Step) isNode()                 {}

func (p *ParameterDeclaration) Name() string { return p.Label }
func (v *VariableDeclaration) Name() string  { return v.Label }
func (p *ParameterApplication) Name() string { return p.Label }

func (p *ParameterDeclaration) Value() Node { return p.DefaultValue }
func (v *VariableDeclaration) Value() Node  { return v.DataValue }
func (p *ParameterApplication) Value() Node { return p.DataValue }

func (*ParameterDeclaration) isVariable() {}
func (*VariableDeclaration) isVariable()  {}
func (*ParameterApplication) isVariable() {}

func (s *Sequence) String() string {
	return fmt.Sprintf("sequence %q (%d locals, %d steps)", s.Name, len(s.Items()), len(s.Body))
}

func (s *ScopeDeclaration) String() string {
	labels := make([]string, len(s.Body))
	for i, v := range s.Body {
		labels[i] = v.Name()
	}
	return "scope[" + strings.Join(labels, ", ") + "]"
}

func (p *ParameterDeclaration) String() string {
	return fmt.Sprintf("param %s ?= %s", p.Label, nodeString(p.DefaultValue))
}

func (v *VariableDeclaration) String() string {
	return fmt.Sprintf("var %s = %s", v.Label, nodeString(v.DataValue))
}

func (p *ParameterApplication) String() string {
	return fmt.Sprintf("%s := %s", p.Label, nodeString(p.DataValue))
}

func (i *Identifier) String() string { return i.Label }
func (c *Coordinate) String() string { return fmt.Sprintf("(%g, %g, %g)", c.X, c.Y, c.Z) }
func (t *Tool) String() string       { return fmt.Sprintf("tool#%d", t.ToolID) }
func (p *Point) String() string      { return fmt.Sprintf("%s#%d", p.PointerType, p.PointerID) }
func (g *PointGroup) String() string { return fmt.Sprintf("group#%d", g.PointGroupID) }
func (*Nothing) String() string      { return "nothing" }
func (n *Numeric) String() string    { return fmt.Sprintf("%g", n.Number) }
func (t *Text) String() string       { return fmt.Sprintf("%q", t.Content) }
func (l *Lua) String() string        { return "lua`" + l.Code + "`" }

func (s *Step) String() string {
	parts := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		if a.Node != nil {
			parts = append(parts, a.Name+"="+a.Node.String())
		} else {
			parts = append(parts, fmt.Sprintf("%s=%v", a.Name, a.Scalar))
		}
	}
	return fmt.Sprintf("%s(%s)", s.StepKind, strings.Join(parts, ", "))
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
