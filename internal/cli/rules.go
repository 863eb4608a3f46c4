package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rulebook/internal/compiler"
)

// RuleInfo describes one rule in dispatch order.
type RuleInfo struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Ruleset   string `json:"ruleset,omitempty"`
	HasSchema bool   `json:"has_schema"`
}

// RulesResult lists the composed rule order.
type RulesResult struct {
	Rulesets []string   `json:"rulesets"`
	Rules    []RuleInfo `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules <ruleset.cue|dir>...",
		Short: "Print the order in which rules are dispatched",
		Long: `Compose the given rulesets and print every rule in the order a
session dispatches it to each fact.

Within a ruleset rules are ordered by priority, then name. Rulesets
given later are appended after earlier ones without resorting.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runRules(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	eng, specs, err := buildEngine(opts, args, cmd.ErrOrStderr())
	if err != nil {
		return reportBuildError(formatter, err)
	}

	result := RulesResult{Rulesets: make([]string, 0, len(specs))}
	owners := ruleOwners(specs)
	for _, spec := range specs {
		result.Rulesets = append(result.Rulesets, spec.Name)
	}
	for i, r := range eng.Rules() {
		result.Rules = append(result.Rules, RuleInfo{
			Position:  i + 1,
			Name:      r.Name,
			Priority:  r.Priority,
			Ruleset:   owners[r.Name],
			HasSchema: r.Schema != nil,
		})
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%d rule(s) from %d ruleset(s)\n\n", len(result.Rules), len(result.Rulesets))
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRIORITY\tRULE\tRULESET\tSCHEMA")
	for _, r := range result.Rules {
		gated := "-"
		if r.HasSchema {
			gated = "yes"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", r.Position, r.Priority, r.Name, r.Ruleset, gated)
	}
	return tw.Flush()
}

// ruleOwners maps each rule name to the first ruleset declaring it.
func ruleOwners(specs []*compiler.RulesetSpec) map[string]string {
	owners := make(map[string]string)
	for _, spec := range specs {
		for _, r := range spec.Rules {
			if _, ok := owners[r.Name]; !ok {
				owners[r.Name] = spec.Name
			}
		}
	}
	return owners
}
