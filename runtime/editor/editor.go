// Package editor runs variable edits against the current resource snapshot
// and hands the result to a persistence collaborator.
//
// Every edit follows one pipeline: resolve against a snapshot, apply the
// pure scope operation, re-check the snapshot at the commit boundary, then
// commit and re-summarize. When the snapshot moved while the edit was being
// resolved, the edit is resolved again against the newer one.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/opal-lang/seqscope/core/binding"
	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/scope"
	"github.com/opal-lang/seqscope/core/script"
)

// Committer persists an edited sequence.
type Committer interface {
	Overwrite(ctx context.Context, original, updated *script.Sequence) error
}

// Notifier shows a message to the user.
type Notifier interface {
	Error(msg string)
}

// Snapshots hands out the latest resource snapshot.
type Snapshots interface {
	Current() *resources.Index
}

// ErrSnapshotUnstable is returned when the snapshot kept changing for
// every attempt at resolving one edit.
var ErrSnapshotUnstable = errors.New("resource snapshot changed during every attempt")

// DefaultMaxAttempts bounds how often one edit is re-resolved.
const DefaultMaxAttempts = 3

// Config configures an Editor.
type Config struct {
	Flags       binding.FeatureFlags // Feature-flag lookup (nil disables multiple variables)
	Logger      *slog.Logger         // Debug logging (nil discards)
	MaxAttempts int                  // Resolution attempts per edit (0 uses DefaultMaxAttempts)
}

// Editor applies edits. It holds no per-edit state and is safe for
// concurrent use if its collaborators are.
type Editor struct {
	snapshots Snapshots
	committer Committer
	notifier  Notifier
	config    Config
	logger    *slog.Logger
}

// New creates an editor.
func New(snapshots Snapshots, committer Committer, notifier Notifier, config Config) *Editor {
	invariant.NotNil(snapshots, "snapshots")
	invariant.NotNil(committer, "committer")
	invariant.NotNil(notifier, "notifier")

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	return &Editor{
		snapshots: snapshots,
		committer: committer,
		notifier:  notifier,
		config:    config,
		logger:    logger,
	}
}

// Result is a committed edit.
type Result struct {
	Sequence *script.Sequence // The committed sequence
	// Summaries are the variable forms after the edit: the header view for
	// header edits, the step view of the called sequence for step edits.
	Summaries   []resources.BindingSummary
	Snapshot    *resources.Index // Snapshot the edit was resolved against, with Sequence reindexed
	Fingerprint string           // Fingerprint of the snapshot before reindexing
	Attempts    int              // Resolution attempts (1 unless the snapshot moved)
	EditTime    time.Duration
}

// EditError is a rejected request with a hint on how to fix it.
type EditError struct {
	Message    string // What went wrong
	Context    string // Which edit
	Suggestion string // How to fix it
}

func (e *EditError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Suggestion != "" {
		b.WriteString("\n")
		b.WriteString(e.Suggestion)
	}
	return b.String()
}

// resolution is one attempt's output.
type resolution struct {
	updated   *script.Sequence
	summaries func(idx *resources.Index) []resources.BindingSummary
}

type editFunc func(seq *script.Sequence, idx *resources.Index) (*resolution, error)

// Declare adds item to the sequence header, or replaces the declaration
// with the same label in place.
func (e *Editor) Declare(ctx context.Context, scriptID string, item script.Variable) (*Result, error) {
	invariant.NotNil(item, "item")
	return e.apply(ctx, "declare", scriptID, func(seq *script.Sequence, idx *resources.Index) (*resolution, error) {
		return e.header(scope.Declare(seq, item)), nil
	})
}

// AddVariable declares a fresh variable bound to the origin, named by
// scope.NextLabel. Without the multiple variables flag a sequence holds at
// most one variable.
func (e *Editor) AddVariable(ctx context.Context, scriptID string) (*Result, error) {
	return e.apply(ctx, "add variable", scriptID, func(seq *script.Sequence, idx *resources.Index) (*resolution, error) {
		existing := seq.Items()
		if len(existing) > 0 && (e.config.Flags == nil || !e.config.Flags.MultipleVariables()) {
			return nil, &EditError{
				Message:    fmt.Sprintf("sequence %q already declares a variable", scriptID),
				Context:    "add variable",
				Suggestion: "Enable multiple variables to declare more than one.",
			}
		}
		label := scope.NextLabel(existing)
		item := binding.SelectionToNode(binding.Selection{
			IdentifierLabel: label,
			Kind:            binding.Variable,
			Pick:            binding.NoValueSelected(),
		})
		e.logger.Debug("adding variable", "script", scriptID, "label", label)
		return e.header(scope.Declare(seq, item)), nil
	})
}

// Select rebinds a header variable to what the user picked. Only the
// parameter and variable kinds edit the header.
func (e *Editor) Select(ctx context.Context, scriptID string, sel binding.Selection) (*Result, error) {
	if sel.Kind == binding.Identifier {
		return nil, &EditError{
			Message:    fmt.Sprintf("cannot bind %q in the header with the identifier kind", sel.IdentifierLabel),
			Context:    "select",
			Suggestion: "Use SelectStep to bind a step-local application.",
		}
	}
	return e.apply(ctx, "select", scriptID, func(seq *script.Sequence, idx *resources.Index) (*resolution, error) {
		return e.header(scope.Declare(seq, binding.SelectionToNode(sel))), nil
	})
}

// Remove deletes a header variable. A variable the body still reads is
// refused: the notifier gets the refusal text and the error wraps
// scope.ErrVariableInUse. Nothing is committed in that case.
func (e *Editor) Remove(ctx context.Context, scriptID, label string) (*Result, error) {
	return e.apply(ctx, "remove", scriptID, func(seq *script.Sequence, idx *resources.Index) (*resolution, error) {
		if _, ok := seq.Declaration(label); !ok {
			return nil, unknownLabel(label, "remove", seq)
		}
		updated, err := scope.Remove(seq, label)
		if err != nil {
			if errors.Is(err, scope.ErrVariableInUse) {
				e.notifier.Error(scope.InUseMessage)
				e.logger.Debug("refused removal", "script", scriptID, "label", label)
			}
			return nil, err
		}
		return e.header(updated), nil
	})
}

// header builds the resolution of a header edit.
func (e *Editor) header(updated *script.Sequence) *resolution {
	return &resolution{
		updated: updated,
		summaries: func(idx *resources.Index) []resources.BindingSummary {
			return binding.DisplayVariables(idx.Variables(updated.ID), nil, idx, updated.ID)
		},
	}
}

func (e *Editor) apply(ctx context.Context, op, scriptID string, edit editFunc) (*Result, error) {
	start := time.Now()

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := e.snapshots.Current()
		invariant.NotNil(idx, "snapshot")
		fingerprint, err := idx.Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		seq, ok := idx.Sequence(scriptID)
		if !ok {
			return nil, unknownSequence(scriptID, op, idx.SequenceIDs())
		}

		res, err := edit(seq, idx)
		if err != nil {
			return nil, err
		}
		invariant.Postcondition(res.updated != seq, "%s must return a new sequence", op)

		// Commit boundary: the edit only stands if it was resolved against
		// the snapshot that is current now.
		current, err := e.snapshots.Current().Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if current != fingerprint {
			e.logger.Debug("snapshot changed, resolving again",
				"op", op, "script", scriptID, "attempt", attempt)
			continue
		}

		if err := e.committer.Overwrite(ctx, seq, res.updated); err != nil {
			return nil, fmt.Errorf("%s %s: commit: %w", op, scriptID, err)
		}

		reindexed := binding.Reindex(idx, res.updated)
		e.logger.Debug("committed edit",
			"op", op, "script", scriptID, "attempt", attempt, "variables", len(res.updated.Items()))

		return &Result{
			Sequence:    res.updated,
			Summaries:   res.summaries(reindexed),
			Snapshot:    reindexed,
			Fingerprint: fingerprint,
			Attempts:    attempt,
			EditTime:    time.Since(start),
		}, nil
	}

	return nil, fmt.Errorf("%s %s: %w", op, scriptID, ErrSnapshotUnstable)
}

func unknownSequence(id, op string, available []string) error {
	err := &EditError{
		Message: fmt.Sprintf("sequence not found: %s", id),
		Context: op,
	}
	if closest := findClosestMatch(id, available); closest != "" {
		err.Suggestion = fmt.Sprintf("Did you mean '%s'?", closest)
	} else if len(available) > 0 {
		err.Suggestion = fmt.Sprintf("Available sequences: %s", strings.Join(available, ", "))
	}
	return err
}

func unknownLabel(label, op string, seq *script.Sequence) error {
	var declared []string
	for _, d := range seq.Items() {
		if d != nil {
			declared = append(declared, d.Name())
		}
	}
	err := &EditError{
		Message: fmt.Sprintf("variable not declared: %s", label),
		Context: op,
	}
	if closest := findClosestMatch(label, declared); closest != "" {
		err.Suggestion = fmt.Sprintf("Did you mean '%s'?", closest)
	}
	return err
}

// findClosestMatch finds the closest string match using fuzzy matching
func findClosestMatch(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	return ""
}
