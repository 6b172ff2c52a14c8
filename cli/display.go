package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
)

// FormatVariables renders variable summaries as a tree under title.
func FormatVariables(w io.Writer, title string, summaries []resources.BindingSummary, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s:\n", title)

	if len(summaries) == 0 {
		_, _ = fmt.Fprintf(w, "(no variables)\n")
		return
	}

	for i := range summaries {
		isLast := i == len(summaries)-1
		renderSummary(w, &summaries[i], isLast, useColor)
	}
}

// renderSummary renders one variable with tree characters
func renderSummary(w io.Writer, s *resources.BindingSummary, isLast, useColor bool) {
	prefix, indent := "├─ ", "│  "
	if isLast {
		prefix, indent = "└─ ", "   "
	}

	label := s.Label()
	if id, ok := s.Node.(*script.Identifier); ok && label == "" {
		label = id.Label
	}
	name := Colorize(scope.DisplayLabel(label), ColorCyan, useColor)
	value := s.Dropdown.Label
	if s.Orphan {
		value = Colorize("undeclared", ColorRed, useColor)
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s%s\n", prefix, name, value, markers(s, useColor))

	if s.Vector != nil {
		_, _ = fmt.Fprintf(w, "%s%s\n", indent, Colorize("at "+s.Vector.String(), ColorGray, useColor))
	}
	if s.Fallback != nil {
		_, _ = fmt.Fprintf(w, "%s%s\n", indent, Colorize(s.Fallback.Label, ColorGray, useColor))
	}
}

func markers(s *resources.BindingSummary, useColor bool) string {
	switch {
	case s.IsDefault:
		return " " + Colorize("[default]", ColorYellow, useColor)
	case s.Fallback != nil:
		return " " + Colorize("[override]", ColorGreen, useColor)
	}
	return ""
}

// FormatChoices renders dropdown entries grouped under their headings.
func FormatChoices(w io.Writer, entries []resources.DropdownEntry, useColor bool) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(w, "(no choices)\n")
		return
	}

	for i, e := range entries {
		if e.Heading {
			_, _ = fmt.Fprintf(w, "%s:\n", Colorize(e.Label, ColorBlue, useColor))
			continue
		}
		prefix := "├─ "
		if i == len(entries)-1 || entries[i+1].Heading {
			prefix = "└─ "
		}
		_, _ = fmt.Fprintf(w, "%s%s", prefix, e.Label)
		if !e.Value.IsEmpty() {
			_, _ = fmt.Fprintf(w, " %s", Colorize("= "+e.Value.String(), ColorGray, useColor))
		}
		_, _ = fmt.Fprintln(w)
	}
}

// writeJSON prints v as indented JSON for --json output.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
