package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/runtime/editor"
	"github.com/opal-lang/seqscope/runtime/loader"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var (
		editErr  *editor.EditError
		docErr   *loader.DocumentError
		inUseErr *scope.VariableInUseError
		cliErr   *CLIError
	)
	switch {
	case errors.As(err, &inUseErr):
		formatCLIError(w, &CLIError{
			Message: scope.InUseMessage,
			Details: fmt.Sprintf("%q is still read by a step of this sequence.", inUseErr.Label),
			Hint:    "Remove or rebind the steps that use it first.",
		}, useColor)
	case errors.As(err, &editErr):
		formatCLIError(w, &CLIError{Message: editErr.Message, Hint: editErr.Suggestion}, useColor)
	case errors.As(err, &docErr):
		formatCLIError(w, &CLIError{Message: docErr.Err.Error(), Details: "in " + docErr.Path}, useColor)
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", Colorize(err.Details, ColorGray, useColor))
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
