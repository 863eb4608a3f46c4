package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rulebook/internal/compiler"
)

// FileValidationError is a compiler validation error tagged with its file.
type FileValidationError struct {
	File string `json:"file"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                  `json:"valid"`
	Files  int                   `json:"files"`
	Rules  int                   `json:"rules"`
	Errors []FileValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <ruleset.cue|dir>...",
		Short: "Validate rulesets without firing them",
		Long: `Compile CUE rulesets and check them for structural errors: missing
names, duplicate rules, unknown action ops, malformed paths and
expressions that do not compile.

All errors across all files are reported, not just the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := ExpandRulesetPaths(args)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	result, validationErrors := ValidateFiles(files, formatter)
	if len(validationErrors) > 0 {
		result.Errors = validationErrors
		return outputValidationErrors(formatter, result)
	}

	return outputValidateSuccess(formatter, result)
}

// ValidateFiles compiles and validates each file, collecting every error.
func ValidateFiles(files []string, formatter *OutputFormatter) (ValidationResult, []FileValidationError) {
	result := ValidationResult{Files: len(files)}
	var allErrors []FileValidationError

	for _, file := range files {
		formatter.VerboseLog("Validating ruleset: %s", file)

		spec, err := compiler.LoadFile(file)
		if err != nil {
			loadErr := convertCompileError(err, file)
			allErrors = append(allErrors, FileValidationError{
				File: file,
				ValidationError: compiler.ValidationError{
					Field:   "load",
					Message: loadErr.Message,
					Code:    loadErr.Code,
					Line:    loadErr.Pos.Line(),
				},
			})
			continue
		}

		result.Rules += len(spec.Rules)
		for _, verr := range compiler.Validate(spec) {
			allErrors = append(allErrors, FileValidationError{File: file, ValidationError: verr})
		}
	}

	return result, allErrors
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	result.Valid = true
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All rulesets valid (%d file(s), %d rule(s))\n", result.Files, result.Rules)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors

	if formatter.IsJSON() {
		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.File, err.Line)
		} else {
			fmt.Fprintln(formatter.Writer, err.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
