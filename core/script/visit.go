package script

// Visitor has one method per node type. Adding a node type to this package
// means adding a method here, which breaks every visitor until it handles
// the new shape.
//
// Each method returns false to stop the walk.
type Visitor interface {
	VisitSequence(*Sequence) bool
	VisitScopeDeclaration(*ScopeDeclaration) bool
	VisitParameterDeclaration(*ParameterDeclaration) bool
	VisitVariableDeclaration(*VariableDeclaration) bool
	VisitParameterApplication(*ParameterApplication) bool
	VisitIdentifier(*Identifier) bool
	VisitCoordinate(*Coordinate) bool
	VisitTool(*Tool) bool
	VisitPoint(*Point) bool
	VisitPointGroup(*PointGroup) bool
	VisitNothing(*Nothing) bool
	VisitNumeric(*Numeric) bool
	VisitText(*Text) bool
	VisitLua(*Lua) bool
	VisitStep(*Step) bool
}

func (s *Sequence) Accept(v Visitor) bool {
	if !v.VisitSequence(s) {
		return false
	}
	if s.Locals != nil && !s.Locals.Accept(v) {
		return false
	}
	for _, a := range s.Args {
		if !acceptOne(a.Node, v) {
			return false
		}
	}
	return acceptAll(s.Body, v)
}

func (s *ScopeDeclaration) Accept(v Visitor) bool {
	if !v.VisitScopeDeclaration(s) {
		return false
	}
	for _, item := range s.Body {
		if !item.Accept(v) {
			return false
		}
	}
	return true
}

func (p *ParameterDeclaration) Accept(v Visitor) bool {
	return v.VisitParameterDeclaration(p) && acceptOne(p.DefaultValue, v)
}

func (d *VariableDeclaration) Accept(v Visitor) bool {
	return v.VisitVariableDeclaration(d) && acceptOne(d.DataValue, v)
}

func (p *ParameterApplication) Accept(v Visitor) bool {
	return v.VisitParameterApplication(p) && acceptOne(p.DataValue, v)
}

func (i *Identifier) Accept(v Visitor) bool { return v.VisitIdentifier(i) }
func (c *Coordinate) Accept(v Visitor) bool { return v.VisitCoordinate(c) }
func (t *Tool) Accept(v Visitor) bool       { return v.VisitTool(t) }
func (p *Point) Accept(v Visitor) bool      { return v.VisitPoint(p) }
func (g *PointGroup) Accept(v Visitor) bool { return v.VisitPointGroup(g) }
func (n *Nothing) Accept(v Visitor) bool    { return v.VisitNothing(n) }
func (n *Numeric) Accept(v Visitor) bool    { return v.VisitNumeric(n) }
func (t *Text) Accept(v Visitor) bool       { return v.VisitText(t) }
func (l *Lua) Accept(v Visitor) bool        { return v.VisitLua(l) }

// Accept visits every node-valued argument, then the body, in order.
func (s *Step) Accept(v Visitor) bool {
	if !v.VisitStep(s) {
		return false
	}
	for _, a := range s.Args {
		if !acceptOne(a.Node, v) {
			return false
		}
	}
	return acceptAll(s.Body, v)
}

func acceptOne(n Node, v Visitor) bool {
	if n == nil {
		return true
	}
	return n.Accept(v)
}

func acceptAll(nodes []Node, v Visitor) bool {
	for _, n := range nodes {
		if !acceptOne(n, v) {
			return false
		}
	}
	return true
}

// Walk traverses the tree rooted at n depth-first, calling fn for each node
// before its children. The walk stops as soon as fn returns false.
// It reports whether the walk ran to completion.
func Walk(n Node, fn func(Node) bool) bool {
	return acceptOne(n, funcVisitor(fn))
}

// WalkAll is Walk over a list of roots.
func WalkAll(nodes []Node, fn func(Node) bool) bool {
	return acceptAll(nodes, funcVisitor(fn))
}

// WalkAllWith runs v over a list of roots and reports whether it completed.
func WalkAllWith(nodes []Node, v Visitor) bool {
	return acceptAll(nodes, v)
}

type funcVisitor func(Node) bool

func (f funcVisitor) VisitSequence(n *Sequence) bool                         { return f(n) }
func (f funcVisitor) VisitScopeDeclaration(n *ScopeDeclaration) bool         { return f(n) }
func (f funcVisitor) VisitParameterDeclaration(n *ParameterDeclaration) bool { return f(n) }
func (f funcVisitor) VisitVariableDeclaration(n *VariableDeclaration) bool   { return f(n) }
func (f funcVisitor) VisitParameterApplication(n *ParameterApplication) bool { return f(n) }
func (f funcVisitor) VisitIdentifier(n *Identifier) bool                     { return f(n) }
func (f funcVisitor) VisitCoordinate(n *Coordinate) bool                     { return f(n) }
func (f funcVisitor) VisitTool(n *Tool) bool                                 { return f(n) }
func (f funcVisitor) VisitPoint(n *Point) bool                               { return f(n) }
func (f funcVisitor) VisitPointGroup(n *PointGroup) bool                     { return f(n) }
func (f funcVisitor) VisitNothing(n *Nothing) bool                           { return f(n) }
func (f funcVisitor) VisitNumeric(n *Numeric) bool                           { return f(n) }
func (f funcVisitor) VisitText(n *Text) bool                                 { return f(n) }
func (f funcVisitor) VisitLua(n *Lua) bool                                   { return f(n) }
func (f funcVisitor) VisitStep(n *Step) bool                                 { return f(n) }
