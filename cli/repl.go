package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const replPrompt = "scope> "

func newReplCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Run commands interactively while the workspace is watched",
		Long: `repl reads one command per line, without the scopectl prefix.
Piped input is run as a script. Type exit or press Ctrl-D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			watchDone := make(chan error, 1)
			go func() { watchDone <- a.watcher.Run(ctx) }()

			var err error
			if f, ok := a.streams.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				err = interactive(ctx, a)
			} else {
				err = runScript(ctx, a, a.streams.in)
			}

			cancel()
			if werr := <-watchDone; werr != nil {
				a.logger.Warn("watcher stopped", "error", werr)
			}
			return err
		},
	}
}

// interactive runs the readline loop.
func interactive(ctx context.Context, a *app) error {
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       replPrompt,
		AutoComplete: completer(),
		Stdout:       a.streams.out,
		Stderr:       a.streams.err,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(a.streams.out)
			return nil
		}
		if err != nil {
			return err
		}

		// Each line gets its own context, cancelled by a SIGINT.
		lineCtx, cancel := context.WithCancel(ctx)
		go func() {
			select {
			case <-interrupted:
				cancel()
			case <-lineCtx.Done():
			}
		}()
		quit := runLine(lineCtx, a, line)
		cancel()
		if quit {
			return nil
		}
	}
}

// runScript runs newline-separated commands from r. It stops at the first
// failing line.
func runScript(ctx context.Context, a *app, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		args, err := splitLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(args) == 0 {
			continue
		}
		if isQuit(args[0]) {
			return nil
		}
		if err := execLine(ctx, a, args); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// runLine executes one interactive line and reports whether to quit.
// Errors are printed, never returned.
func runLine(ctx context.Context, a *app, line string) bool {
	args, err := splitLine(line)
	if err != nil {
		FormatError(a.streams.err, err, a.useColor)
		return false
	}
	if len(args) == 0 {
		return false
	}
	if isQuit(args[0]) {
		return true
	}
	if err := execLine(ctx, a, args); err != nil && !errors.Is(err, errReported) {
		FormatError(a.streams.err, err, a.useColor)
	}
	return false
}

// execLine runs args against a fresh command tree bound to a.
func execLine(ctx context.Context, a *app, args []string) error {
	root := &cobra.Command{
		Use:           "",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.streams.out)
	root.SetErr(a.streams.err)
	addCommands(root, func() *app { return a })
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func isQuit(word string) bool {
	return word == "exit" || word == "quit"
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("next-label"),
		readline.PcItem("declare",
			readline.PcItem("--label"),
			readline.PcItem("--kind"),
			readline.PcItem("--step"),
			readline.PcItem("--tool"),
			readline.PcItem("--point"),
			readline.PcItem("--group"),
			readline.PcItem("--coord"),
			readline.PcItem("--var"),
			readline.PcItem("--none"),
		),
		readline.PcItem("rm"),
		readline.PcItem("show", readline.PcItem("--step"), readline.PcItem("--json")),
		readline.PcItem("choices", readline.PcItem("--kind"), readline.PcItem("--groups"), readline.PcItem("--json")),
		readline.PcItem("import"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// splitLine breaks a command line into words. Single quotes are literal;
// inside double quotes and bare words a backslash escapes the next byte.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   byte
		escaped bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\\':
			escaped, inWord = true, true
		case quote == '"':
			if c == '"' {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote, inWord = c, true
		case c == ' ' || c == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		case c == '#' && !inWord:
			i = len(line)
		default:
			cur.WriteByte(c)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, &CLIError{Message: "unterminated quote", Details: line}
	}
	if escaped {
		return nil, &CLIError{Message: "trailing backslash", Details: line}
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
