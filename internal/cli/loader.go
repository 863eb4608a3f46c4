package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rulebook/internal/compiler"
)

// Error code constants - unified across all CLI commands.
// Ruleset validation codes (E2xx) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or compile failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeFactsFailed = "E006" // Facts file unreadable or malformed
)

// LoadError represents an error that occurred during ruleset loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ExpandRulesetPaths turns arguments into CUE file paths. A directory
// contributes every .cue file below it in lexical order.
func ExpandRulesetPaths(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("ruleset path not found: %s", arg)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", arg, err)}
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		found, err := FindCUEFiles(arg)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(found) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", arg)}
		}
		files = append(files, found...)
	}
	return files, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// LoadRulesets expands args and compiles each ruleset, failing on the first
// error. Compile errors keep their CUE position.
func LoadRulesets(args []string) ([]*compiler.RulesetSpec, error) {
	files, err := ExpandRulesetPaths(args)
	if err != nil {
		return nil, err
	}

	specs := make([]*compiler.RulesetSpec, 0, len(files))
	for _, file := range files {
		spec, err := compiler.LoadFile(file)
		if err != nil {
			return nil, convertCompileError(err, file)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message)
		if !compileErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s: %s", file, msg)
		}
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: msg,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("%s: %v", file, err),
	}
}

// LoadFacts reads facts from a YAML or JSON file. A top-level list yields one
// fact per element; any other document is a single fact. An empty file has
// no facts.
func LoadFacts(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeFactsFailed, Message: fmt.Sprintf("read facts: %v", err)}
	}

	// JSON is a subset of YAML, so one decoder serves both.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeFactsFailed, Message: fmt.Sprintf("parse facts %s: %v", path, err)}
	}

	switch facts := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		return facts, nil
	default:
		return []any{facts}, nil
	}
}
