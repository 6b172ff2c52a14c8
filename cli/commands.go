package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opal-lang/seqscope/core/binding"
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
	"github.com/opal-lang/seqscope/runtime/editor"
	"github.com/opal-lang/seqscope/runtime/loader"
)

// addCommands registers the workspace commands on root. get returns the
// app built for the current invocation.
func addCommands(root *cobra.Command, get func() *app) {
	root.AddCommand(
		newNextLabelCmd(get),
		newDeclareCmd(get),
		newRemoveCmd(get),
		newShowCmd(get),
		newChoicesCmd(get),
		newImportCmd(get),
		newWatchCmd(get),
	)
}

func newNextLabelCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next-label <sequence>",
		Short: "Print the label the next added variable would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := get().sequence(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), scope.NextLabel(seq.Items()))
			return nil
		},
	}
}

func newDeclareCmd(get func() *app) *cobra.Command {
	var (
		label string
		kind  string
		step  string
		pick  pickFlags
	)

	cmd := &cobra.Command{
		Use:   "declare <sequence>",
		Short: "Add a variable or bind a variable to a value",
		Long: `Without --label and a value, declare adds the next numbered variable.
With --step, the value is bound for one execute step only and overrides the
called sequence's default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			id := args[0]

			if label == "" && !pick.set() && step == "" {
				result, err := a.editor.AddVariable(ctx, id)
				if err != nil {
					return err
				}
				return a.printResult(cmd.OutOrStdout(), "Variables of "+id, result)
			}
			if label == "" {
				return &CLIError{Message: "--label is required when binding a value", Hint: "Run next-label to see the next free label."}
			}

			entry, vector, err := pick.entry()
			if err != nil {
				return err
			}
			sel := binding.Selection{IdentifierLabel: label, Pick: entry, Vector: vector}

			if step != "" {
				path, err := parsePath(step)
				if err != nil {
					return err
				}
				sel.Kind = binding.Identifier
				result, err := a.editor.SelectStep(ctx, id, path, sel)
				if err != nil {
					return err
				}
				return a.printResult(cmd.OutOrStdout(), fmt.Sprintf("Step %s of %s", step, id), result)
			}

			if kind == "" {
				kind = a.cfg.DefaultKind
			}
			sel.Kind, err = binding.ParseKind(kind)
			if err != nil {
				return err
			}
			result, err := a.editor.Select(ctx, id, sel)
			if err != nil {
				return err
			}
			return a.printResult(cmd.OutOrStdout(), "Variables of "+id, result)
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Variable label")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "parameter or variable (default from config)")
	cmd.Flags().StringVar(&step, "step", "", "Bind on the execute step at this body path (e.g. 0 or 2.1)")
	cmd.Flags().IntVar(&pick.tool, "tool", 0, "Tool id")
	cmd.Flags().StringVar(&pick.point, "point", "", "Point as Type:ID (e.g. Plant:20)")
	cmd.Flags().IntVar(&pick.group, "group", 0, "Point group id")
	cmd.Flags().StringVar(&pick.coord, "coord", "", "Coordinate as x,y,z")
	cmd.Flags().StringVar(&pick.variable, "var", "", "Another variable's label")
	cmd.Flags().BoolVar(&pick.none, "none", false, "Clear the value")
	return cmd
}

func newRemoveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <sequence> <label>",
		Short: "Remove an unused variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			result, err := a.editor.Remove(cmd.Context(), args[0], args[1])
			if errors.Is(err, scope.ErrVariableInUse) {
				// The notifier has shown it.
				return errReported
			}
			if err != nil {
				return err
			}
			return a.printResult(cmd.OutOrStdout(), "Variables of "+args[0], result)
		},
	}
}

func newShowCmd(get func() *app) *cobra.Command {
	var (
		step   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show <sequence>",
		Short: "Show a sequence's variables, or the step view of an execute step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id := args[0]

			var (
				title     string
				summaries []resources.BindingSummary
			)
			if step != "" {
				path, err := parsePath(step)
				if err != nil {
					return err
				}
				summaries, err = a.editor.StepVariables(id, path)
				if err != nil {
					return err
				}
				title = fmt.Sprintf("Step %s of %s", step, id)
			} else {
				if _, err := a.sequence(id); err != nil {
					return err
				}
				idx := a.watcher.Current()
				summaries = binding.DisplayVariables(idx.Variables(id), nil, idx, id)
				title = "Variables of " + id
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}
			FormatVariables(cmd.OutOrStdout(), title, summaries, a.useColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&step, "step", "", "Execute step body path (e.g. 0 or 2.1)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print summaries as JSON")
	return cmd
}

func newChoicesCmd(get func() *app) *cobra.Command {
	var (
		kind   string
		groups bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "choices <sequence> <label>",
		Short: "List the values a variable can be bound to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, label := args[0], args[1]
			seq, err := a.sequence(id)
			if err != nil {
				return err
			}

			if kind == "" {
				kind = a.cfg.DefaultKind
			}
			k, err := binding.ParseKind(kind)
			if err != nil {
				return err
			}

			variable, ok := seq.Declaration(label)
			if !ok {
				variable = &script.ParameterDeclaration{Label: label, DefaultValue: &script.Coordinate{}}
			}
			idx := a.watcher.Current()
			entries := binding.Choices(idx, binding.VariableItems(k, idx, id, variable, a.cfg.Features), groups)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			FormatChoices(cmd.OutOrStdout(), entries, a.useColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "parameter, variable or identifier (default from config)")
	cmd.Flags().BoolVar(&groups, "groups", false, "Include point groups")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newImportCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file|-]",
		Short: "Validate a sequence document and write it into the workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			file := ""
			if len(args) == 1 {
				file = args[0]
			}

			reader, closeFunc, err := getInputReader(file, a.streams.in)
			if err != nil {
				return err
			}
			defer func() { _ = closeFunc() }()

			data, err := io.ReadAll(reader)
			if err != nil {
				return err
			}
			seq, err := loader.ParseSequence(data)
			if err != nil {
				if file != "" && file != "-" {
					return &loader.DocumentError{Path: file, Err: err}
				}
				return err
			}

			original := seq
			if existing, ok := a.watcher.Current().Sequence(seq.ID); ok {
				original = existing
			}
			if err := a.store.Overwrite(cmd.Context(), original, seq); err != nil {
				return err
			}
			if err := a.watcher.Reload(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Colorize("imported", ColorGreen, a.useColor), seq.ID)
			return nil
		},
	}
}

func newWatchCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the workspace on every change and report it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			out := cmd.OutOrStdout()
			a.onReload = func(idx *resources.Index, err error) {
				if err != nil {
					FormatError(a.streams.err, err, a.useColor)
					return
				}
				_, _ = fmt.Fprintf(out, "%s %d sequences, snapshot %s\n",
					Colorize("reloaded", ColorGreen, a.useColor), len(idx.SequenceIDs()), shortFingerprint(idx))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			_, _ = fmt.Fprintf(out, "watching %s (snapshot %s)\n", a.store.Dir(), shortFingerprint(a.watcher.Current()))
			return a.watcher.Run(ctx)
		},
	}
}

// sequence looks id up in the current snapshot.
func (a *app) sequence(id string) (*script.Sequence, error) {
	seq, ok := a.watcher.Current().Sequence(id)
	if !ok {
		return nil, &CLIError{
			Message: fmt.Sprintf("unknown sequence %q", id),
			Hint:    fmt.Sprintf("Sequences are read from %s.", a.store.SequencePath("<id>")),
		}
	}
	return seq, nil
}

// printResult reloads the snapshot after a commit and prints the summaries.
func (a *app) printResult(w io.Writer, title string, result *editor.Result) error {
	if err := a.watcher.Reload(); err != nil {
		return err
	}
	a.logger.Debug("edit committed", "sequence", result.Sequence.ID, "attempts", result.Attempts, "time", result.EditTime)
	FormatVariables(w, title, result.Summaries, a.useColor)
	return nil
}

func shortFingerprint(idx *resources.Index) string {
	fp, err := idx.Fingerprint()
	if err != nil {
		return "?"
	}
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
