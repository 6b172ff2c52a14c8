package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"# a comment", nil},
		{"show mover", []string{"show", "mover"}},
		{"  show\tmover  ", []string{"show", "mover"}},
		{`declare mover --label "Location variable 1"`, []string{"declare", "mover", "--label", "Location variable 1"}},
		{`rm mover 'it''s'`, []string{"rm", "mover", "its"}},
		{`rm mover 'a\b'`, []string{"rm", "mover", `a\b`}},
		{`rm mover "say \"hi\""`, []string{"rm", "mover", `say "hi"`}},
		{`rm mover a\ b`, []string{"rm", "mover", "a b"}},
		{`rm mover ""`, []string{"rm", "mover", ""}},
		{"show mover # trailing", []string{"show", "mover"}},
		{"rm mover a#b", []string{"rm", "mover", "a#b"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			assert.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestSplitLineErrors(t *testing.T) {
	for _, line := range []string{`rm "open`, `rm 'open`, `rm trailing\`} {
		_, err := splitLine(line)
		assert.Error(t, err, line)
	}
}

func TestParsePath(t *testing.T) {
	got, err := parsePath("2.0.11")
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 0, 11}, got)

	for _, bad := range []string{"a", "1..2", "-1", "1."} {
		_, err := parsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestPickFlags(t *testing.T) {
	entry, vec, err := pickFlags{point: "Weed:40"}.entry()
	assert.NoError(t, err)
	assert.Nil(t, vec)
	assert.Equal(t, "Weed", entry.HeadingID)
	id, ok := entry.Value.Int()
	assert.True(t, ok)
	assert.Equal(t, 40, id)

	entry, vec, err = pickFlags{coord: "1.5, 2, -3"}.entry()
	assert.NoError(t, err)
	assert.Equal(t, "Coordinate", entry.HeadingID)
	if assert.NotNil(t, vec) {
		assert.Equal(t, 1.5, vec.X)
		assert.Equal(t, -3.0, vec.Z)
	}

	entry, _, err = pickFlags{none: true}.entry()
	assert.NoError(t, err)
	assert.True(t, entry.IsNull)
}
