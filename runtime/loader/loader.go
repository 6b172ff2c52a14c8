// Package loader reads sequences and map resources from JSON documents on
// disk and writes edited sequences back.
//
// A workspace directory holds one resources.json and a sequences/
// directory with one document per sequence:
//
//	{"format_version": "1.0.0", "id": "mover", "sequence": {"kind": "sequence", ...}}
//
// Every document is validated against an embedded JSON Schema and its
// format_version must share the major version this package writes.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/script"
)

// FormatVersion is the document version this package writes.
const FormatVersion = "1.0.0"

// ErrUnsupportedVersion is wrapped when a document's major version differs
// from FormatVersion's.
var ErrUnsupportedVersion = errors.New("unsupported format version")

// DocumentError locates a failure in one document.
type DocumentError struct {
	Path string // File the document came from ("" when parsed from memory)
	Err  error
}

func (e *DocumentError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

type sequenceDocument struct {
	FormatVersion string          `json:"format_version"`
	ID            string          `json:"id"`
	Sequence      json.RawMessage `json:"sequence"`
}

type resourcesDocument struct {
	FormatVersion string               `json:"format_version"`
	Tools         []resources.Tool     `json:"tools,omitempty"`
	Points        []resources.MapPoint `json:"points,omitempty"`
	Groups        []resources.Group    `json:"point_groups,omitempty"`
}

// Farm is the content of a resources document.
type Farm struct {
	Tools  []resources.Tool
	Points []resources.MapPoint
	Groups []resources.Group
}

// Builder starts an index holding the farm's resources.
func (f *Farm) Builder() *resources.Builder {
	b := resources.NewBuilder()
	for _, t := range f.Tools {
		b.AddTool(t)
	}
	for _, p := range f.Points {
		b.AddPoint(p)
	}
	for _, g := range f.Groups {
		b.AddGroup(g)
	}
	return b
}

// ParseSequence validates and decodes a sequence document.
func ParseSequence(data []byte) (*script.Sequence, error) {
	if err := validate(sequenceSchema, data); err != nil {
		return nil, err
	}
	var doc sequenceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := checkVersion(doc.FormatVersion); err != nil {
		return nil, err
	}
	seq, err := script.DecodeSequence(doc.Sequence)
	if err != nil {
		return nil, err
	}
	seq.ID = doc.ID
	return seq, nil
}

// EncodeSequence renders seq as a document at FormatVersion.
func EncodeSequence(seq *script.Sequence) ([]byte, error) {
	if seq == nil || seq.ID == "" {
		return nil, errors.New("encode: sequence without id")
	}
	body, err := script.Encode(seq)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(sequenceDocument{
		FormatVersion: FormatVersion,
		ID:            seq.ID,
		Sequence:      body,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// ParseResources validates and decodes a resources document.
func ParseResources(data []byte) (*Farm, error) {
	if err := validate(resourcesSchema, data); err != nil {
		return nil, err
	}
	var doc resourcesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := checkVersion(doc.FormatVersion); err != nil {
		return nil, err
	}
	return &Farm{Tools: doc.Tools, Points: doc.Points, Groups: doc.Groups}, nil
}

// EncodeResources renders a farm as a document at FormatVersion.
func EncodeResources(f *Farm) ([]byte, error) {
	out, err := json.MarshalIndent(resourcesDocument{
		FormatVersion: FormatVersion,
		Tools:         f.Tools,
		Points:        f.Points,
		Groups:        f.Groups,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func checkVersion(v string) error {
	got := canonicalVersion(v)
	want := canonicalVersion(FormatVersion)
	if semver.Major(got) != semver.Major(want) {
		return fmt.Errorf("%w: %s (this build reads %s.x)", ErrUnsupportedVersion, v, strings.TrimPrefix(semver.Major(want), "v"))
	}
	return nil
}
