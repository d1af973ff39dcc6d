// Package cmd provides the CLI commands for perg.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/perg/internal/config"
	pergerrors "github.com/Aman-CERP/perg/internal/errors"
	"github.com/Aman-CERP/perg/internal/logging"
	"github.com/Aman-CERP/perg/internal/output"
	"github.com/Aman-CERP/perg/internal/profiling"
	"github.com/Aman-CERP/perg/internal/search"
	"github.com/Aman-CERP/perg/pkg/version"
)

const usageLine = "Usage: perg -e <term> -f <path> [-f <path>...] [-o <file>] [-t <threads>] [-i] [--literal] [--exclude <substr>...]"

// rootOptions holds the flag values of one invocation.
type rootOptions struct {
	term       string
	files      []string
	outputFile string
	threads    int
	ignoreCase bool
	literal    bool
	exclude    []string
	color      string
	watch      bool
	stats      bool
	configPath string
	debug      bool
	logFile    string
	profile    profiling.Config
}

// NewRootCmd creates the root command for the perg CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "perg -e <term> -f <path> [flags]",
		Short: "Search files in parallel for lines matching a pattern",
		Long: `perg searches files and directory trees for lines matching a regular
expression (or a literal string with --literal) using a pool of workers.

Every matching line is printed as <file>:<line>: <text> with the match
highlighted. Directories are searched recursively.`,
		Example: `  perg -e 'TODO|FIXME' -f src
  perg -e a.b --literal -f notes.txt -f docs --exclude .min.
  perg -e error -i -f logs -o errors.txt -t 8`,
		Version:       version.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSearch(cmd, opts, args)
			if err != nil {
				reportError(cmd.ErrOrStderr(), err)
			}
			return err
		},
	}

	cmd.SetVersionTemplate("perg version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		usageErr := pergerrors.UsageError(err.Error())
		reportError(c.ErrOrStderr(), usageErr)
		return usageErr
	})

	f := cmd.Flags()
	f.StringVarP(&opts.term, "expr", "e", "", "Pattern to search for (required)")
	f.StringArrayVarP(&opts.files, "file", "f", nil, "File or directory to search (required, repeatable)")
	f.StringVarP(&opts.outputFile, "output", "o", "", "Write matches to this file instead of stdout")
	f.IntVarP(&opts.threads, "threads", "t", config.DefaultThreads, "Number of worker threads")
	f.BoolVarP(&opts.ignoreCase, "ignore-case", "i", false, "Match case-insensitively")
	f.BoolVar(&opts.literal, "literal", false, "Treat the pattern as a literal string")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "Skip files whose name contains this text (repeatable)")
	f.StringVar(&opts.color, "color", string(config.ColorAlways), "Highlight matches: always, auto or never")
	f.BoolVar(&opts.watch, "watch", false, "Keep running and rescan files as they change")
	f.BoolVar(&opts.stats, "stats", false, "Print a summary to stderr when done")
	f.StringVar(&opts.configPath, "config", "", "YAML file with default settings")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	f.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	f.StringVar(&opts.profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	f.StringVar(&opts.profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	f.StringVar(&opts.profile.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func runSearch(cmd *cobra.Command, opts *rootOptions, args []string) error {
	if len(args) > 0 {
		return pergerrors.UsageError(fmt.Sprintf("unexpected argument %q", args[0])).
			WithSuggestion("Pass files and directories with -f")
	}

	cfg, logLevel, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:     logLevel,
		FilePath:  opts.logFile,
		MaxSizeMB: logging.DefaultConfig().MaxSizeMB,
		MaxFiles:  logging.DefaultConfig().MaxFiles,
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return pergerrors.ConfigError("failed to set up logging", err)
	}
	defer cleanup()

	out := output.New(cmd.ErrOrStderr())

	if opts.profile.Enabled() {
		session, err := profiling.Start(opts.profile)
		if err != nil {
			return pergerrors.ConfigError("failed to start profiling", err)
		}
		defer func() {
			if err := session.Stop(); err != nil {
				logger.Warn("profile_write_failed", slog.String("error", err.Error()))
				out.Warning(fmt.Sprintf("failed to write profile: %v", err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searchOpts := []search.Option{
		search.WithLogger(logger),
		search.WithStateHook(func(s search.State) {
			if s == search.StateWatching {
				out.Statusf("👀", "Watching %d path(s) for changes, press Ctrl+C to stop", len(cfg.Include))
			}
		}),
	}
	if opts.logFile != "" {
		searchOpts = append(searchOpts, search.WithSkipPaths(opts.logFile))
	}

	stats, err := search.Run(ctx, cfg, cmd.OutOrStdout(), searchOpts...)
	if err != nil {
		return err
	}

	if cfg.Stats {
		out.Summary(stats.Matches, stats.MatchedFiles, stats.Files, stats.Duration)
	}
	return nil
}

// buildConfig turns flags and the optional config file into a validated
// SearchConfig and the log level to use.
func buildConfig(cmd *cobra.Command, opts *rootOptions) (config.SearchConfig, string, error) {
	color, err := config.ParseColorMode(opts.color)
	if err != nil {
		return config.SearchConfig{}, "", pergerrors.UsageError(err.Error())
	}

	cfg := config.New(opts.term, opts.files,
		config.WithLiteral(opts.literal),
		config.WithIgnoreCase(opts.ignoreCase),
		config.WithExclude(opts.exclude...),
		config.WithOutputFile(opts.outputFile),
		config.WithThreads(opts.threads),
		config.WithColor(color),
		config.WithWatch(opts.watch),
		config.WithStats(opts.stats),
	)

	logLevel := logging.DefaultConfig().Level
	if opts.configPath != "" {
		fc, err := config.LoadFile(opts.configPath)
		if err != nil {
			return config.SearchConfig{}, "", err
		}
		cfg = fc.Apply(cfg, cmd.Flags().Changed)
		if fc.LogLevel != "" {
			logLevel = fc.LogLevel
		}
	}
	if opts.debug {
		logLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.SearchConfig{}, "", err
	}
	return cfg, logLevel, nil
}

// reportError prints err for the user. Usage errors are followed by the
// usage line; an interrupted run prints nothing.
func reportError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	out := output.New(w)
	out.Raw(pergerrors.FormatForCLI(err))
	if errors.Is(err, pergerrors.ErrUsage) {
		out.Raw(usageLine + "\n")
	}
}
