package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadFile reads and compiles a single CUE ruleset file.
// Each file gets its own CUE context.
func LoadFile(path string) (*RulesetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	spec, err := CompileRuleset(v)
	if err != nil {
		return nil, err
	}

	spec.Source = path
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return spec, nil
}

// LoadFiles loads rulesets in argument order, stopping at the first error.
func LoadFiles(paths ...string) ([]*RulesetSpec, error) {
	specs := make([]*RulesetSpec, 0, len(paths))
	for _, p := range paths {
		spec, err := LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CompileString compiles an inline CUE ruleset. Used by tests and embedders.
func CompileString(src string) (*RulesetSpec, error) {
	ctx := cuecontext.New()
	return CompileRuleset(ctx.CompileString(src))
}
