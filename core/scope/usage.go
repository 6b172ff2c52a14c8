package scope

import (
	"regexp"

	"github.com/opal-lang/seqscope/core/script"
)

// luaVariableCall matches variable("label"), variable('label') and the bare
// variable() form, which reads "parent".
var luaVariableCall = regexp.MustCompile(`\bvariable\(\s*("([^"]*)"|'([^']*)')?\s*\)`)

// IsReferenced reports whether any node in body reads label. Pass the step
// tree (Sequence.Body), not the header scope: a declaration does not use
// its own label.
//
// Every node-valued argument and child body is visited, including operands
// nested inside axis overwrites, conditions and parameter applications of
// execute steps. Lua code counts when it calls variable() for the label.
func IsReferenced(body []script.Node, label string) bool {
	u := &usageScanner{match: label}
	script.WalkAllWith(body, u)
	return u.found
}

// References returns every label read by body in first-seen order.
func References(body []script.Node) []string {
	u := &usageScanner{collect: true}
	script.WalkAllWith(body, u)
	return u.seen
}

// usageScanner is a script.Visitor. In collect mode it records every label
// it sees; otherwise it stops at the first read of match, which may be "".
type usageScanner struct {
	collect bool
	match   string
	found   bool
	seen    []string
	dedup   map[string]bool
}

func (u *usageScanner) hit(label string) bool {
	if !u.collect {
		if label == u.match {
			u.found = true
			return false
		}
		return true
	}
	if u.dedup == nil {
		u.dedup = map[string]bool{}
	}
	if !u.dedup[label] {
		u.dedup[label] = true
		u.seen = append(u.seen, label)
	}
	return true
}

func (u *usageScanner) VisitIdentifier(n *script.Identifier) bool {
	return u.hit(n.Label)
}

func (u *usageScanner) VisitLua(n *script.Lua) bool {
	for _, label := range luaReferences(n.Code) {
		if !u.hit(label) {
			return false
		}
	}
	return true
}

func (u *usageScanner) VisitStep(n *script.Step) bool {
	// Lua steps carry their code as a scalar arg rather than a Lua node.
	if a, ok := n.Arg("lua"); ok && a.Node == nil {
		if code, ok := a.Scalar.(string); ok {
			for _, label := range luaReferences(code) {
				if !u.hit(label) {
					return false
				}
			}
		}
	}
	return true
}

func (u *usageScanner) VisitSequence(*script.Sequence) bool                         { return true }
func (u *usageScanner) VisitScopeDeclaration(*script.ScopeDeclaration) bool         { return true }
func (u *usageScanner) VisitParameterDeclaration(*script.ParameterDeclaration) bool { return true }
func (u *usageScanner) VisitVariableDeclaration(*script.VariableDeclaration) bool   { return true }
func (u *usageScanner) VisitParameterApplication(*script.ParameterApplication) bool { return true }
func (u *usageScanner) VisitCoordinate(*script.Coordinate) bool                     { return true }
func (u *usageScanner) VisitTool(*script.Tool) bool                                 { return true }
func (u *usageScanner) VisitPoint(*script.Point) bool                               { return true }
func (u *usageScanner) VisitPointGroup(*script.PointGroup) bool                     { return true }
func (u *usageScanner) VisitNothing(*script.Nothing) bool                           { return true }
func (u *usageScanner) VisitNumeric(*script.Numeric) bool                           { return true }
func (u *usageScanner) VisitText(*script.Text) bool                                 { return true }

func luaReferences(code string) []string {
	var out []string
	for _, m := range luaVariableCall.FindAllStringSubmatch(code, -1) {
		if m[1] == "" {
			// No quoted argument: the bare form.
			out = append(out, ParentLabel)
			continue
		}
		// One of the two quote styles matched; the other group is empty.
		out = append(out, m[2]+m[3])
	}
	return out
}
