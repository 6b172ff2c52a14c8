package resources

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/opal-lang/seqscope/core/script"
)

// canonicalIndex is the deterministic form of an Index used for hashing.
// Every collection is a slice sorted by key so map iteration order never
// reaches the encoder.
type canonicalIndex struct {
	Version   uint8
	Tools     []Tool
	Points    []MapPoint
	Groups    []Group
	Sequences []canonicalSequence
	Variables []canonicalNameSet
}

type canonicalSequence struct {
	ID   string
	Tree []byte
}

type canonicalNameSet struct {
	ScriptID string
	Entries  []canonicalEntry
}

type canonicalEntry struct {
	Label    string
	Orphan   bool
	Kind     string
	Dropdown string
	Vector   []float64
	Default  bool
}

// Fingerprint returns a hex BLAKE2b-256 digest of the snapshot's canonical
// CBOR encoding. Two snapshots with equal content have equal fingerprints,
// which lets an editor notice that the snapshot moved between resolving an
// edit and committing it.
func (idx *Index) Fingerprint() (string, error) {
	ci, err := idx.canonicalize()
	if err != nil {
		return "", err
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return "", fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(ci)
	if err != nil {
		return "", fmt.Errorf("CBOR encoding failed: %w", err)
	}

	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (idx *Index) canonicalize() (*canonicalIndex, error) {
	ci := &canonicalIndex{
		Version: 1,
		Tools:   idx.Tools(),
		Groups:  idx.Groups(),
	}
	for _, kind := range idx.pointTypes() {
		ci.Points = append(ci.Points, idx.Points(kind)...)
	}
	for i, g := range ci.Groups {
		ids := append([]int(nil), g.PointIDs...)
		sort.Ints(ids)
		ci.Groups[i].PointIDs = ids
	}

	for _, id := range idx.SequenceIDs() {
		tree, err := script.Encode(idx.sequences[id])
		if err != nil {
			return nil, fmt.Errorf("sequence %q: %w", id, err)
		}
		ci.Sequences = append(ci.Sequences, canonicalSequence{ID: id, Tree: tree})
	}

	ids := make([]string, 0, len(idx.variables))
	for id := range idx.variables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		set := idx.variables[id]
		ns := canonicalNameSet{ScriptID: id}
		for _, label := range set.Labels() {
			summary, _ := set.Get(label)
			ns.Entries = append(ns.Entries, canonicalizeEntry(label, summary))
		}
		ci.Variables = append(ci.Variables, ns)
	}
	return ci, nil
}

func canonicalizeEntry(label string, s *BindingSummary) canonicalEntry {
	if s == nil {
		return canonicalEntry{Label: label, Orphan: true}
	}
	e := canonicalEntry{
		Label:    label,
		Dropdown: s.Dropdown.Label + "\x00" + s.Dropdown.Value.String(),
		Default:  s.IsDefault,
	}
	if s.Node != nil {
		e.Kind = s.Node.Kind()
	}
	if s.Vector != nil {
		e.Vector = []float64{s.Vector.X, s.Vector.Y, s.Vector.Z}
	}
	return e
}

// pointTypes returns every point type present, known types first.
func (idx *Index) pointTypes() []string {
	seen := map[string]bool{}
	for k := range idx.points {
		seen[k.kind] = true
	}
	var out []string
	for _, t := range PointTypes {
		if seen[t] {
			out = append(out, t)
			delete(seen, t)
		}
	}
	var rest []string
	for t := range seen {
		rest = append(rest, t)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
