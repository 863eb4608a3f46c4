package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
)

// Validation error codes (E200-E299)
const (
	// Ruleset errors (E200-E209)
	ErrRulesetNoRules = "E200" // at least one rule required
	ErrRuleNameEmpty  = "E201" // rule name is required
	ErrDuplicateRule  = "E202" // duplicate rule name in one ruleset

	// Action errors (E210-E219)
	ErrRuleNoActions    = "E210" // rule must have at least one action
	ErrInvalidActionOp  = "E211" // op must be set, add or append
	ErrActionPathEmpty  = "E212" // action path is required
	ErrActionPathFormat = "E213" // malformed dot path
	ErrActionExprEmpty  = "E214" // action expression is required

	// Expression errors (E220-E229)
	ErrInvalidWhenExpr   = "E220" // when predicate does not compile
	ErrInvalidActionExpr = "E221" // action expression does not compile
)

// ValidationError represents a ruleset validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled ruleset.
// Returns all errors found (does not fail-fast).
func Validate(spec *RulesetSpec) []ValidationError {
	var errs []ValidationError

	// E200: at least one rule
	if len(spec.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "rules",
			Message: "at least one rule is required",
			Code:    ErrRulesetNoRules,
		})
	}

	names := make(map[string]bool)
	for i, rule := range spec.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		line := rule.Pos.Line()

		// E201: rule name required
		if strings.TrimSpace(rule.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "rule name is required and must be non-empty",
				Code:    ErrRuleNameEmpty,
				Line:    line,
			})
		}

		// E202: duplicate name
		if rule.Name != "" && names[rule.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate rule name: %q", rule.Name),
				Code:    ErrDuplicateRule,
				Line:    line,
			})
		}
		names[rule.Name] = true

		// E220: when must compile
		if rule.When != "" {
			if _, err := compilePredicate(rule.When); err != nil {
				errs = append(errs, ValidationError{
					Field:   field + ".when",
					Message: err.Error(),
					Code:    ErrInvalidWhenExpr,
					Line:    line,
				})
			}
		}

		// E210: at least one action
		if len(rule.Then) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".then",
				Message: fmt.Sprintf("rule %q must have at least one action", rule.Name),
				Code:    ErrRuleNoActions,
				Line:    line,
			})
		}

		for j, action := range rule.Then {
			errs = append(errs, validateAction(action, fmt.Sprintf("%s.then[%d]", field, j))...)
		}
	}

	return errs
}

// validateAction checks a single action.
func validateAction(action ActionSpec, field string) []ValidationError {
	var errs []ValidationError
	line := action.Pos.Line()

	// E211: valid op
	if !isValidOp(action.Op) {
		errs = append(errs, ValidationError{
			Field:   field + ".op",
			Message: fmt.Sprintf("invalid op %q, must be \"set\", \"add\", or \"append\"", action.Op),
			Code:    ErrInvalidActionOp,
			Line:    line,
		})
	}

	// E212/E213: path
	if strings.TrimSpace(action.Path) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".path",
			Message: "action path is required",
			Code:    ErrActionPathEmpty,
			Line:    line,
		})
	} else if slices.Contains(splitPath(action.Path), "") {
		errs = append(errs, ValidationError{
			Field:   field + ".path",
			Message: fmt.Sprintf("malformed path %q", action.Path),
			Code:    ErrActionPathFormat,
			Line:    line,
		})
	}

	// E214/E221: expression
	if strings.TrimSpace(action.Expr) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".expr",
			Message: "action expression is required",
			Code:    ErrActionExprEmpty,
			Line:    line,
		})
	} else if _, err := expr.Compile(action.Expr, exprOptions()...); err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".expr",
			Message: err.Error(),
			Code:    ErrInvalidActionExpr,
			Line:    line,
		})
	}

	return errs
}

func isValidOp(op string) bool {
	switch op {
	case OpSet, OpAdd, OpAppend:
		return true
	default:
		return false
	}
}

// splitPath splits a dot-separated state path.
func splitPath(path string) []string {
	return strings.Split(path, ".")
}
