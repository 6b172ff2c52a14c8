package scope

import (
	"strconv"

	"github.com/opal-lang/seqscope/core/script"
)

// ParentLabel is the label the first variable of a sequence gets.
const ParentLabel = "parent"

const numberedPrefix = "Location variable"

// NextLabel returns a label no entry of existing uses: "parent" if it is
// free, otherwise the first free "Location variable N" counting from 1.
// Nil entries are ignored. The result depends only on the set of labels,
// not on their order.
func NextLabel(existing []script.Variable) string {
	taken := make(map[string]bool, len(existing))
	for _, v := range existing {
		if v != nil {
			taken[v.Name()] = true
		}
	}
	if !taken[ParentLabel] {
		return ParentLabel
	}
	for i := 1; ; i++ {
		candidate := numberedPrefix + " " + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// DisplayLabel is the form title for a variable; "parent" reads as
// "Location variable".
func DisplayLabel(label string) string {
	if label == ParentLabel {
		return numberedPrefix
	}
	return label
}
