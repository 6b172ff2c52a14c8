// Package resources holds the read-only snapshot the binding resolver
// consults: map resources (tools, points, groups), the sequences they can
// point at, and the per-sequence variable name sets.
package resources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/opal-lang/seqscope/core/script"
)

// Vector3 is a resolved position.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// VectorOf converts a coordinate literal.
func VectorOf(c *script.Coordinate) *Vector3 {
	return &Vector3{X: c.X, Y: c.Y, Z: c.Z}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%s, %s, %s)", formatNumber(v.X), formatNumber(v.Y), formatNumber(v.Z))
}

// DropdownValue is the string-or-number value of a dropdown entry.
type DropdownValue struct {
	Text    string
	Number  float64
	Numeric bool
}

// StringValue builds a string value.
func StringValue(s string) DropdownValue { return DropdownValue{Text: s} }

// NumberValue builds a numeric value.
func NumberValue(n float64) DropdownValue { return DropdownValue{Number: n, Numeric: true} }

// Int returns the value as an integer id. Numeric strings are accepted since
// some producers send ids as text.
func (v DropdownValue) Int() (int, bool) {
	if v.Numeric {
		return int(v.Number), v.Number == float64(int(v.Number))
	}
	n, err := strconv.Atoi(v.Text)
	return n, err == nil
}

func (v DropdownValue) String() string {
	if v.Numeric {
		return formatNumber(v.Number)
	}
	return v.Text
}

// IsEmpty reports whether v is the empty string.
func (v DropdownValue) IsEmpty() bool { return !v.Numeric && v.Text == "" }

func (v DropdownValue) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

func (v *DropdownValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*v = DropdownValue{}
		return json.Unmarshal(data, &v.Text)
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("dropdown value: %w", err)
	}
	*v = NumberValue(n)
	return nil
}

// DropdownEntry is the selection vocabulary shared with whatever renders
// the dropdown. Heading entries label a group; HeadingID ties an item to one.
type DropdownEntry struct {
	Label     string        `json:"label"`
	Value     DropdownValue `json:"value"`
	HeadingID string        `json:"headingId,omitempty"`
	Heading   bool          `json:"heading,omitempty"`
	IsNull    bool          `json:"isNull,omitempty"`
}

// BindingSummary is the displayable view of a variable's current value.
// Summaries are recomputed from the tree and a snapshot; they are never
// edited in place.
type BindingSummary struct {
	Node     script.Node   `json:"-"`
	Dropdown DropdownEntry `json:"dropdown"`
	Vector   *Vector3      `json:"vector,omitempty"`
	// IsDefault marks a parameter shown through its default value.
	IsDefault bool `json:"isDefault,omitempty"`
	// Orphan marks an identifier whose target is not in the snapshot.
	Orphan bool `json:"orphan,omitempty"`
	// Fallback is the header default shown beside a step-local override.
	Fallback *DropdownEntry `json:"fallback,omitempty"`
}

// Label returns the label of the summarized variable, or "" when the node
// does not bind one.
func (b *BindingSummary) Label() string {
	if b == nil {
		return ""
	}
	if v, ok := b.Node.(script.Variable); ok {
		return v.Name()
	}
	return ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
