package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed is wrapped by every decode error.
var ErrMalformed = errors.New("malformed node")

// Decode parses one node in the {"kind", "args", "body"} envelope.
// Kinds this package does not model decode to *Step, and sequence args it
// does not model are kept in Sequence.Args, so nothing is lost on a
// decode/encode cycle.
func Decode(data []byte) (Node, error) {
	return decodeNode(json.RawMessage(data), "$")
}

// DecodeSequence parses a sequence node.
func DecodeSequence(data []byte) (*Sequence, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	seq, ok := n.(*Sequence)
	if !ok {
		return nil, fmt.Errorf("%w: $: expected %q, got %q", ErrMalformed, KindSequence, n.Kind())
	}
	return seq, nil
}

// Encode renders n in the wire envelope. Map keys come out sorted, so equal
// trees encode to equal bytes.
func Encode(n Node) ([]byte, error) {
	if n == nil {
		return nil, errors.New("encode: nil node")
	}
	v, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

type envelope struct {
	Kind string                     `json:"kind"`
	Args map[string]json.RawMessage `json:"args"`
	Body []json.RawMessage          `json:"body"`
}

func decodeNode(raw json.RawMessage, path string) (Node, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("%w: %s: missing kind", ErrMalformed, path)
	}
	d := argDecoder{args: env.Args, path: path}

	switch env.Kind {
	case KindSequence:
		seq := &Sequence{Name: d.str("label"), Version: int(d.num("version"))}
		if raw, ok := env.Args["locals"]; ok {
			n, err := decodeNode(raw, path+".args.locals")
			if err != nil {
				return nil, err
			}
			scope, ok := n.(*ScopeDeclaration)
			if !ok {
				return nil, fmt.Errorf("%w: %s.args.locals: expected %q, got %q", ErrMalformed, path, KindScopeDeclaration, n.Kind())
			}
			seq.Locals = scope
		}
		body, err := decodeBody(env.Body, path)
		if err != nil {
			return nil, err
		}
		seq.Body = body
		if d.err != nil {
			return nil, d.err
		}
		seq.Args, err = decodeArgs(env.Args, path, sequenceArgs)
		if err != nil {
			return nil, err
		}
		return seq, nil

	case KindScopeDeclaration:
		scope := &ScopeDeclaration{}
		if env.Body != nil {
			scope.Body = make([]Variable, 0, len(env.Body))
		}
		for i, raw := range env.Body {
			p := fmt.Sprintf("%s.body[%d]", path, i)
			n, err := decodeNode(raw, p)
			if err != nil {
				return nil, err
			}
			v, ok := n.(Variable)
			if !ok {
				return nil, fmt.Errorf("%w: %s: %q is not a declaration", ErrMalformed, p, n.Kind())
			}
			scope.Body = append(scope.Body, v)
		}
		return scope, nil

	case KindParameterDeclaration:
		n := &ParameterDeclaration{Label: d.str("label"), DefaultValue: d.node("default_value")}
		return n, d.err
	case KindVariableDeclaration:
		n := &VariableDeclaration{Label: d.str("label"), DataValue: d.node("data_value")}
		return n, d.err
	case KindParameterApplication:
		n := &ParameterApplication{Label: d.str("label"), DataValue: d.node("data_value")}
		return n, d.err
	case KindIdentifier:
		n := &Identifier{Label: d.str("label")}
		return n, d.err
	case KindCoordinate:
		n := &Coordinate{X: d.num("x"), Y: d.num("y"), Z: d.num("z")}
		return n, d.err
	case KindTool:
		n := &Tool{ToolID: int(d.num("tool_id"))}
		return n, d.err
	case KindPoint:
		n := &Point{PointerType: d.str("pointer_type"), PointerID: int(d.num("pointer_id"))}
		return n, d.err
	case KindPointGroup:
		n := &PointGroup{PointGroupID: int(d.num("point_group_id"))}
		return n, d.err
	case KindNothing:
		return &Nothing{}, nil
	case KindNumeric:
		n := &Numeric{Number: d.num("number")}
		return n, d.err
	case KindText:
		n := &Text{Content: d.str("string")}
		return n, d.err
	case KindLua:
		n := &Lua{Code: d.str("lua")}
		return n, d.err
	}

	args, err := decodeArgs(env.Args, path, nil)
	if err != nil {
		return nil, err
	}
	body, err := decodeBody(env.Body, path)
	if err != nil {
		return nil, err
	}
	return &Step{StepKind: env.Kind, Args: args, Body: body}, nil
}

// sequenceArgs are the sequence args modelled as Sequence fields.
var sequenceArgs = map[string]bool{"label": true, "version": true, "locals": true}

// decodeArgs decodes every arg not in skip, sorted by name. Envelopes become
// nodes; anything else is kept as a scalar with numbers as json.Number.
func decodeArgs(raws map[string]json.RawMessage, path string, skip map[string]bool) ([]Arg, error) {
	names := make([]string, 0, len(raws))
	for name := range raws {
		if !skip[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var args []Arg
	for _, name := range names {
		raw := raws[name]
		p := path + ".args." + name
		if isEnvelope(raw) {
			n, err := decodeNode(raw, p)
			if err != nil {
				return nil, err
			}
			args = append(args, Arg{Name: name, Node: n})
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var scalar any
		if err := dec.Decode(&scalar); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, p, err)
		}
		args = append(args, Arg{Name: name, Scalar: scalar})
	}
	return args, nil
}

func decodeBody(raws []json.RawMessage, path string) ([]Node, error) {
	if raws == nil {
		return nil, nil
	}
	out := make([]Node, 0, len(raws))
	for i, raw := range raws {
		n, err := decodeNode(raw, fmt.Sprintf("%s.body[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// isEnvelope reports whether raw is an object carrying a "kind" key.
func isEnvelope(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe struct {
		Kind *string `json:"kind"`
	}
	return json.Unmarshal(trimmed, &probe) == nil && probe.Kind != nil
}

// argDecoder reads typed args and keeps the first error.
type argDecoder struct {
	args map[string]json.RawMessage
	path string
	err  error
}

func (d *argDecoder) fail(name string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s.args.%s: %v", ErrMalformed, d.path, name, err)
	}
}

func (d *argDecoder) str(name string) string {
	raw, ok := d.args[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.fail(name, err)
	}
	return s
}

func (d *argDecoder) num(name string) float64 {
	raw, ok := d.args[name]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		d.fail(name, err)
	}
	return f
}

func (d *argDecoder) node(name string) Node {
	raw, ok := d.args[name]
	if !ok {
		d.fail(name, errors.New("missing"))
		return nil
	}
	n, err := decodeNode(raw, d.path+".args."+name)
	if err != nil && d.err == nil {
		d.err = err
	}
	return n
}

func encodeNode(n Node) (map[string]any, error) {
	args := map[string]any{}
	out := map[string]any{"kind": n.Kind(), "args": args}

	switch n := n.(type) {
	case *Sequence:
		if err := encodeArgs(args, n.Args); err != nil {
			return nil, err
		}
		args["label"] = n.Name
		args["version"] = n.Version
		if n.Locals != nil {
			locals, err := encodeNode(n.Locals)
			if err != nil {
				return nil, err
			}
			args["locals"] = locals
		}
		if n.Body != nil {
			body, err := encodeNodes(n.Body)
			if err != nil {
				return nil, err
			}
			out["body"] = body
		}
	case *ScopeDeclaration:
		if n.Body != nil {
			body := make([]any, 0, len(n.Body))
			for _, v := range n.Body {
				e, err := encodeNode(v)
				if err != nil {
					return nil, err
				}
				body = append(body, e)
			}
			out["body"] = body
		}
	case *ParameterDeclaration:
		return encodeBinding(out, args, n.Label, "default_value", n.DefaultValue)
	case *VariableDeclaration:
		return encodeBinding(out, args, n.Label, "data_value", n.DataValue)
	case *ParameterApplication:
		return encodeBinding(out, args, n.Label, "data_value", n.DataValue)
	case *Identifier:
		args["label"] = n.Label
	case *Coordinate:
		args["x"], args["y"], args["z"] = n.X, n.Y, n.Z
	case *Tool:
		args["tool_id"] = n.ToolID
	case *Point:
		args["pointer_type"] = n.PointerType
		args["pointer_id"] = n.PointerID
	case *PointGroup:
		args["point_group_id"] = n.PointGroupID
	case *Nothing:
	case *Numeric:
		args["number"] = n.Number
	case *Text:
		args["string"] = n.Content
	case *Lua:
		args["lua"] = n.Code
	case *Step:
		if err := encodeArgs(args, n.Args); err != nil {
			return nil, err
		}
		if n.Body != nil {
			body, err := encodeNodes(n.Body)
			if err != nil {
				return nil, err
			}
			out["body"] = body
		}
	default:
		return nil, fmt.Errorf("encode: unhandled node %T", n)
	}
	return out, nil
}

func encodeArgs(args map[string]any, list []Arg) error {
	for _, a := range list {
		if a.Node == nil {
			args[a.Name] = a.Scalar
			continue
		}
		e, err := encodeNode(a.Node)
		if err != nil {
			return err
		}
		args[a.Name] = e
	}
	return nil
}

func encodeBinding(out, args map[string]any, label, key string, value Node) (map[string]any, error) {
	args["label"] = label
	if value == nil {
		return nil, fmt.Errorf("encode %s %q: missing %s", out["kind"], label, key)
	}
	e, err := encodeNode(value)
	if err != nil {
		return nil, err
	}
	args[key] = e
	return out, nil
}

func encodeNodes(nodes []Node) ([]any, error) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		e, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
