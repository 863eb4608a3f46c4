package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rulebook/internal/compiler"
	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/value"
)

// FireOptions holds flags for the fire command.
type FireOptions struct {
	*RootOptions
	FactsFile string
	Facts     []string // inline YAML/JSON facts
}

// FireResult is the payload of a successful fire.
type FireResult struct {
	Facts   int       `json:"facts"`
	Rules   int       `json:"rules"`
	Fired   int       `json:"fired"`
	Skipped int       `json:"skipped"`
	State   value.Map `json:"state"`

	// StateFingerprint identifies the final state; equal states share it.
	StateFingerprint string `json:"state_fingerprint"`
}

// NewFireCommand creates the fire command.
func NewFireCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FireOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fire <ruleset.cue|dir>...",
		Short: "Fire rulesets against facts and print the final state",
		Long: `Compose the given rulesets in argument order, insert the facts into a
fresh session, fire it and print the resulting state.

Facts come from --facts (a YAML or JSON file holding a list of facts)
and/or repeated --fact flags, in that order.

Exit codes:
  0 - Fire completed
  1 - Invalid ruleset or a rule failed while firing
  2 - Command error (missing files, unreadable facts, etc.)

Examples:
  rulebook fire ./rules/adults.cue --facts people.yaml
  rulebook fire ./rules --fact '{name: ann, age: 34}' --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFire(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FactsFile, "facts", "", "YAML or JSON file with a list of facts")
	cmd.Flags().StringArrayVar(&opts.Facts, "fact", nil, "inline YAML/JSON fact (repeatable)")

	return cmd
}

func runFire(opts *FireOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	facts, err := collectFacts(opts)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	eng, _, err := buildEngine(opts.RootOptions, args, cmd.ErrOrStderr())
	if err != nil {
		return reportBuildError(formatter, err)
	}

	session, err := eng.NewSession()
	if err != nil {
		return reportBuildError(formatter, err)
	}
	rec := &engine.Recorder{}
	session.Observe(rec)

	formatter.VerboseLog("Firing %d fact(s) against %d rule(s)", len(facts), len(session.Rules()))

	fireErr := session.InsertMany(facts...).Fire()
	result := FireResult{
		Facts:   len(facts),
		Rules:   len(session.Rules()),
		Fired:   len(rec.Fired()),
		Skipped: countOutcome(rec, engine.OutcomeSkipped),
		State:   session.State(),
	}

	if fireErr != nil {
		return reportFireError(formatter, session.ID(), result, fireErr)
	}

	fp, err := value.StateFingerprint(result.State)
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprint state", err)
	}
	result.StateFingerprint = fp

	if formatter.IsJSON() {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result, SessionID: session.ID()})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Fired %d fact(s) against %d rule(s): %d fired, %d skipped\n",
		result.Facts, result.Rules, result.Fired, result.Skipped)
	formatter.VerboseLog("State fingerprint: %s", result.StateFingerprint)
	return writeState(w, result.State)
}

// collectFacts gathers facts from --facts then --fact.
func collectFacts(opts *FireOptions) ([]any, error) {
	var facts []any
	if opts.FactsFile != "" {
		loaded, err := LoadFacts(opts.FactsFile)
		if err != nil {
			return nil, err
		}
		facts = append(facts, loaded...)
	}
	for i, raw := range opts.Facts {
		var fact any
		if err := yaml.Unmarshal([]byte(raw), &fact); err != nil {
			return nil, &LoadError{Code: ErrCodeFactsFailed, Message: fmt.Sprintf("--fact[%d]: %v", i, err)}
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

// buildEngine loads, validates and composes rulesets into one engine.
func buildEngine(opts *RootOptions, args []string, logw io.Writer) (*engine.Engine, []*compiler.RulesetSpec, error) {
	specs, err := LoadRulesets(args)
	if err != nil {
		return nil, nil, err
	}

	engineOpts, err := opts.engineOptions(opts.logger(logw))
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	eng, err := compiler.BuildAll(specs, engineOpts...)
	if err != nil {
		return nil, nil, err
	}
	return eng, specs, nil
}

// reportLoadError prints a load failure and returns a command error.
func reportLoadError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to load input", err)
}

// reportBuildError distinguishes load problems (exit 2) from invalid
// rulesets (exit 1).
func reportBuildError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return reportLoadError(formatter, err)
	}

	code := ErrCodeGeneric
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		code = verr.Code
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, "invalid ruleset", err)
}

// reportFireError prints a fire failure with the partial state.
func reportFireError(formatter *OutputFormatter, sessionID string, result FireResult, err error) error {
	code := fireErrorCode(err)
	if formatter.IsJSON() {
		_ = formatter.JSON(CLIResponse{
			Status:    "error",
			Data:      result,
			SessionID: sessionID,
			Error:     &CLIError{Code: code, Message: err.Error()},
		})
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Fire failed [%s]: %v\n", code, err)
		fmt.Fprintln(formatter.Writer, "Partial state:")
		_ = writeState(formatter.Writer, result.State)
	}
	return WrapExitError(ExitFailure, "fire failed", err)
}

func countOutcome(rec *engine.Recorder, outcome engine.Outcome) int {
	n := 0
	for _, ev := range rec.Events {
		if ev.Outcome == outcome {
			n++
		}
	}
	return n
}

func writeState(w io.Writer, state value.Map) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
