package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/schema"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	FireOptions
	Rule    string // optional - filter to one rule
	Outcome string // optional - filter to one outcome
}

// TraceEvent represents a single dispatch in the trace timeline.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	Fact        int      `json:"fact"`
	Fingerprint string   `json:"fingerprint"`
	Rule        string   `json:"rule"`
	Priority    int      `json:"priority"`
	Outcome     string   `json:"outcome"`
	Issues      []string `json:"issues,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionID string       `json:"session_id"`
	Timeline  []TraceEvent `json:"timeline"`
	Stats     TraceStats   `json:"stats"`
	FireError string       `json:"fire_error,omitempty"`
}

// TraceStats holds summary statistics for the trace.
// Counts cover the whole session, not just the filtered timeline.
type TraceStats struct {
	Facts      int  `json:"facts"`
	Dispatches int  `json:"dispatches"`
	Fired      int  `json:"fired"`
	Skipped    int  `json:"skipped"`
	Faults     int  `json:"faults"`
	Complete   bool `json:"complete"`
}

var validOutcomes = []string{
	string(engine.OutcomeFired),
	string(engine.OutcomeSkipped),
	string(engine.OutcomeFault),
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{FireOptions: FireOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "trace <ruleset.cue|dir>...",
		Short: "Fire rulesets and show every rule dispatch",
		Long: `Fire the given rulesets against facts and print the dispatch timeline:
one line per (fact, rule) pair in the order the session handled them.

Each dispatch is fired (the handler ran), skipped (the rule's schema
rejected the fact, with the reasons) or a fault (the handler failed,
which stops the session).

Examples:
  rulebook trace ./rules --facts people.yaml
  rulebook trace ./rules --facts people.yaml --outcome skipped
  rulebook trace ./rules --fact '{age: 3}' --rule count-adults --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FactsFile, "facts", "", "YAML or JSON file with a list of facts")
	cmd.Flags().StringArrayVar(&opts.Facts, "fact", nil, "inline YAML/JSON fact (repeatable)")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only show dispatches of this rule")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only show dispatches with this outcome (fired|skipped|fault)")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Outcome != "" && !slices.Contains(validOutcomes, opts.Outcome) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid outcome %q: must be one of %v", opts.Outcome, validOutcomes))
	}

	facts, err := collectFacts(&opts.FireOptions)
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

	fireErr := session.InsertMany(facts...).Fire()

	result := TraceResult{
		SessionID: session.ID(),
		Timeline:  buildTimeline(rec.Events, opts.Rule, opts.Outcome),
		Stats: TraceStats{
			Facts:      len(facts),
			Dispatches: len(rec.Events),
			Fired:      countOutcome(rec, engine.OutcomeFired),
			Skipped:    countOutcome(rec, engine.OutcomeSkipped),
			Faults:     countOutcome(rec, engine.OutcomeFault),
			Complete:   fireErr == nil,
		},
	}
	if fireErr != nil {
		result.FireError = fireErr.Error()
	}

	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: result, SessionID: result.SessionID}
		if fireErr != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: fireErrorCode(fireErr), Message: fireErr.Error()}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		outputTraceText(formatter.Writer, result, opts.Verbose)
	}

	if fireErr != nil {
		return WrapExitError(ExitFailure, "fire failed", fireErr)
	}
	return nil
}

// buildTimeline converts recorded events to timeline entries, keeping only
// those matching the optional rule and outcome filters.
func buildTimeline(events []engine.Event, rule, outcome string) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(events))
	for _, ev := range events {
		if rule != "" && ev.Rule != rule {
			continue
		}
		if outcome != "" && string(ev.Outcome) != outcome {
			continue
		}

		te := TraceEvent{
			Seq:         ev.Seq,
			Fact:        ev.FactIndex,
			Fingerprint: ev.Fingerprint,
			Rule:        ev.Rule,
			Priority:    ev.Priority,
			Outcome:     string(ev.Outcome),
			Issues:      issueStrings(ev.Issues),
		}
		if ev.Err != nil {
			te.Error = ev.Err.Error()
		}
		timeline = append(timeline, te)
	}
	return timeline
}

func issueStrings(issues []schema.Issue) []string {
	if len(issues) == 0 {
		return nil
	}
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.String()
	}
	return out
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.SessionID)
	fmt.Fprintf(w, "Status: %s\n", completeStatus(result))
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no dispatches)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] fact %d  %-8s %s\n", ev.Seq, ev.Fact, strings.ToUpper(ev.Outcome), ev.Rule)
		for _, issue := range ev.Issues {
			fmt.Fprintf(w, "       - %s\n", issue)
		}
		if ev.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", ev.Error)
		}
		if verbose {
			fmt.Fprintf(w, "       fingerprint: %s  priority: %d\n", truncateID(ev.Fingerprint), ev.Priority)
		}
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Facts:      %d\n", result.Stats.Facts)
	fmt.Fprintf(w, "  Dispatches: %d\n", result.Stats.Dispatches)
	fmt.Fprintf(w, "  Fired:      %d\n", result.Stats.Fired)
	fmt.Fprintf(w, "  Skipped:    %d\n", result.Stats.Skipped)
	fmt.Fprintf(w, "  Faults:     %d\n", result.Stats.Faults)
}

func fireErrorCode(err error) string {
	var rerr *engine.RuntimeError
	if errors.As(err, &rerr) {
		return string(rerr.Code)
	}
	return ErrCodeGeneric
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// completeStatus returns a human-readable completion status.
func completeStatus(result TraceResult) string {
	if result.Stats.Complete {
		return "Complete"
	}
	return "Aborted: " + result.FireError
}
