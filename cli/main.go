package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/runtime/editor"
	"github.com/opal-lang/seqscope/runtime/loader"
	"github.com/opal-lang/seqscope/runtime/watch"
)

// errReported is returned once the error has already been shown to the
// user (by the notifier); main only sets the exit code.
var errReported = errors.New("error already reported")

func main() {
	s := streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
	if err := newRootCmd(s).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			FormatError(os.Stderr, err, ShouldUseColor(false, "auto"))
		}
		os.Exit(1)
	}
}

type streams struct {
	in       io.Reader
	out, err io.Writer
}

// globalOptions are the persistent flags.
type globalOptions struct {
	dir     string
	config  string
	debug   bool
	noColor bool
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg      Config
	streams  streams
	useColor bool
	logger   *slog.Logger
	store    *loader.Store
	watcher  *watch.Watcher
	editor   *editor.Editor

	// onReload is called by the watcher after every reload attempt.
	onReload func(idx *resources.Index, err error)
}

func newRootCmd(s streams) *cobra.Command {
	var (
		opts globalOptions
		a    *app
	)

	rootCmd := &cobra.Command{
		Use:           "scopectl",
		Short:         "Inspect and edit the variables of farm sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(opts, cmd.Flags().Changed("config"), s)
			return err
		},
	}

	rootCmd.SetIn(s.in)
	rootCmd.SetOut(s.out)
	rootCmd.SetErr(s.err)

	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "d", "", "Workspace directory (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&opts.config, "config", DefaultConfigFile, "Path to the config file")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	addCommands(rootCmd, func() *app { return a })
	rootCmd.AddCommand(newReplCmd(func() *app { return a }))
	return rootCmd
}

func newApp(opts globalOptions, configRequired bool, s streams) (*app, error) {
	cfg, err := LoadConfig(opts.config, configRequired)
	if err != nil {
		return nil, err
	}
	if opts.dir != "" {
		cfg.Workspace = opts.dir
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}

	a := &app{
		cfg:      cfg,
		streams:  s,
		useColor: ShouldUseColor(opts.noColor, cfg.Color),
		logger:   newLogger(s.err, cfg.LogLevel),
	}
	a.store = loader.NewStore(cfg.Workspace, a.logger)

	a.watcher, err = watch.New(a.store,
		[]string{cfg.Workspace, filepath.Join(cfg.Workspace, loader.SequencesDir)},
		watch.Options{
			Logger: a.logger,
			OnReload: func(idx *resources.Index, err error) {
				if a.onReload != nil {
					a.onReload(idx, err)
				}
			},
		})
	if err != nil {
		return nil, err
	}

	a.editor = editor.New(a.watcher, a.store, &cliNotifier{w: s.err, useColor: a.useColor}, editor.Config{
		Flags:  cfg.Features,
		Logger: a.logger,
	})
	a.logger.Debug("workspace ready", "dir", cfg.Workspace, "sequences", len(a.watcher.Current().SequenceIDs()))
	return a, nil
}

// cliNotifier prints editor notifications to stderr.
type cliNotifier struct {
	w        io.Writer
	useColor bool
}

func (n *cliNotifier) Error(msg string) {
	_, _ = fmt.Fprintf(n.w, "%s%s\n", Colorize("Error: ", ColorRed, n.useColor), msg)
}

// getInputReader handles the 3 modes of input:
// 1. Explicit stdin with -
// 2. Piped input (auto-detected when no file is given)
// 3. File input
func getInputReader(file string, stdin io.Reader) (io.Reader, func() error, error) {
	// Mode 1: Explicit stdin
	if file == "-" {
		return stdin, func() error { return nil }, nil
	}

	// Mode 2: Piped input without a file argument
	if file == "" {
		if stdin != os.Stdin || hasPipedInput() {
			return stdin, func() error { return nil }, nil
		}
		return nil, nil, &CLIError{Message: "no document given", Hint: "Pass a file, or - to read stdin."}
	}

	// Mode 3: File input
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", file, err)
	}

	return f, f.Close, nil
}

// hasPipedInput checks if there's data piped to stdin
func hasPipedInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	// Check if stdin is a pipe or file (not a terminal)
	return (stat.Mode() & os.ModeCharDevice) == 0
}
