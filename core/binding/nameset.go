package binding

import (
	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
)

// BuildNameSet summarizes a sequence's header declarations in order, then
// records every label the sequence reads without declaring as an orphan.
// Identifier values are summarized against the name set idx already holds
// for seq, so a fresh set needs a second pass (see Reindex).
func BuildNameSet(seq *script.Sequence, idx *resources.Index) *resources.VariableNameSet {
	invariant.NotNil(seq, "sequence")

	set := resources.NewVariableNameSet()
	var values []script.Node
	for _, decl := range seq.Items() {
		if decl == nil {
			continue
		}
		s := DeclarationSummary(decl, idx, seq.ID)
		set.Set(decl.Name(), &s)
		if v := decl.Value(); v != nil {
			values = append(values, v)
		}
	}

	refs := scope.References(seq.Body)
	refs = append(refs, scope.References(values)...)
	for _, label := range refs {
		if _, ok := set.Get(label); !ok {
			set.Set(label, nil)
		}
	}
	return set
}

// Reindex returns a snapshot holding seqs with every name set rebuilt.
// Two passes let a declaration whose value is an identifier see the
// summary of the declaration it names.
func Reindex(idx *resources.Index, seqs ...*script.Sequence) *resources.Index {
	for _, seq := range seqs {
		invariant.NotNil(seq, "sequence")
		idx = idx.WithSequence(seq)
	}
	for pass := 0; pass < 2; pass++ {
		for _, id := range idx.SequenceIDs() {
			seq, _ := idx.Sequence(id)
			idx = idx.WithVariables(id, BuildNameSet(seq, idx))
		}
	}
	return idx
}
