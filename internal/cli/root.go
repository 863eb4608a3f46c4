package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/rulebook/internal/config"
	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogLevel  string
	Collation string // BCP 47 tag; empty means byte order
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rulebook CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rulebook",
		Short: "rulebook - schema-gated rule engine",
		Long:  "Fire declarative CUE rulesets against facts. Each rule runs in priority order and only sees facts its schema accepts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd, opts); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logs)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Collation, "collation", "", "BCP 47 tag for rule name ordering")

	// Add subcommands
	cmd.AddCommand(NewFireCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyEnv fills options that were not set on the command line from
// RULEBOOK_* environment variables.
func applyEnv(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		opts.Format = cfg.Format
	}
	if !flags.Changed("log-level") {
		opts.LogLevel = cfg.LogLevel
	}
	if !flags.Changed("collation") {
		opts.Collation = cfg.Collation
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// logger builds the engine logger. Logs always go to w (stderr), so JSON
// output on stdout stays parseable. --verbose forces debug.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := o.LogLevel
	if o.Verbose {
		level = "debug"
	}
	return logging.NewLogger(level, w)
}

// engineOptions returns the engine options shared by commands that build
// engines from rulesets.
func (o *RootOptions) engineOptions(logger *slog.Logger) ([]engine.Option, error) {
	opts := []engine.Option{engine.WithLogger(logger)}

	tag, ok, err := config.Config{Collation: o.Collation}.CollationTag()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, engine.WithCollation(tag))
	}
	return opts, nil
}
