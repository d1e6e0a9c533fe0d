// Package validation implements the pre-flight structural checks of
// spec.md 7's input-error taxonomy: checks independent of the search that
// catch a malformed task before the driver ever runs. Grounded on the
// teacher's ValidationError/ValidationResult shape
// (internal/validation/validation.go), repointed from LLM-config checks to
// task structural checks.
package validation

import (
	"fmt"
	"strings"

	"fondsynth.dev/planner/internal/task"
)

// ValidationError is one structural complaint against a task, with an
// optional suggested fix for the CLI to print.
type ValidationError struct {
	Field   string
	Message string
	Fix     string
}

func (e ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Fix != "" {
		msg += fmt.Sprintf("\n  Fix: %s", e.Fix)
	}
	return msg
}

// ValidationResult accumulates errors (fatal, per spec.md 7) and warnings
// (non-fatal) found while checking a task.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid reports whether no fatal errors were recorded.
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

func (v *ValidationResult) AddError(field, message, fix string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message, Fix: fix})
}

func (v *ValidationResult) AddWarning(field, message, fix string) {
	v.Warnings = append(v.Warnings, ValidationError{Field: field, Message: message, Fix: fix})
}

// ValidateTask runs every structural check spec.md 7 expects to fail
// before search starts: variable/value range checks, goal/init length,
// nondet-grouping consistency, and axiom shape.
func ValidateTask(t *task.Task) *ValidationResult {
	result := &ValidationResult{}

	if t.NumVars <= 0 {
		result.AddError("num_vars", "task declares no variables", "a task needs at least one state variable")
		return result
	}
	if len(t.Domains) != t.NumVars {
		result.AddError("domains", fmt.Sprintf("expected %d domain sizes, got %d", t.NumVars, len(t.Domains)),
			"supply one domain size per variable")
	}
	for v, d := range t.Domains {
		if d <= 0 {
			result.AddError(fmt.Sprintf("domains[%d]", v), "domain size must be positive", "")
		}
	}

	if len(t.Init) != t.NumVars {
		result.AddError("init", fmt.Sprintf("initial state has %d variables, expected %d", len(t.Init), t.NumVars), "")
	} else {
		for v, val := range t.Init {
			if val == task.Unset {
				result.AddError(fmt.Sprintf("init[%d]", v), "initial state must be complete (no unset variables)", "")
			} else if v < len(t.Domains) && (val < 0 || val >= t.Domains[v]) {
				result.AddError(fmt.Sprintf("init[%d]", v), fmt.Sprintf("value %d out of domain [0,%d)", val, t.Domains[v]), "")
			}
		}
	}

	if len(t.Goal) != t.NumVars {
		result.AddError("goal", fmt.Sprintf("goal has %d variables, expected %d", len(t.Goal), t.NumVars), "")
	} else {
		anySet := false
		for v, val := range t.Goal {
			if val == task.Unset {
				continue
			}
			anySet = true
			if v < len(t.Domains) && (val < 0 || val >= t.Domains[v]) {
				result.AddError(fmt.Sprintf("goal[%d]", v), fmt.Sprintf("value %d out of domain [0,%d)", val, t.Domains[v]), "")
			}
		}
		if !anySet {
			result.AddWarning("goal", "goal is empty; every state (including init) already satisfies it", "")
		}
	}

	validateOperators(t, result)

	return result
}

func validateOperators(t *task.Task, result *ValidationResult) {
	for _, op := range t.Operators {
		label := op.Name
		if label == "" {
			label = fmt.Sprintf("operator#%d", op.ID)
		}

		for _, pre := range op.Pre {
			checkAssignment(result, label+".pre", t, pre.Var, pre.Val)
		}
		for _, eff := range op.Effects {
			checkAssignment(result, label+".effect", t, eff.Var, eff.Val)
			for _, cond := range eff.Cond {
				checkAssignment(result, label+".effect.cond", t, cond.Var, cond.Val)
			}
		}

		if op.Axiom {
			if op.Cost != 0 {
				result.AddError(label, "axiom-flagged operators must have cost 0", "set cost to 0 or remove the axiom flag")
			}
			if len(op.Effects) != 1 || len(op.Effects[0].Cond) != 0 {
				result.AddError(label, "axiom-flagged operators must have exactly one unconditional effect", "")
			}
		}

		if strings.Contains(op.Name, "_DETDUP") && op.NondetName == "" {
			result.AddWarning(label, "operator name uses the _DETDUP convention but NondetName was not derived from it", "")
		}
	}

	seen := map[int]string{}
	for _, a := range t.Actions {
		for i, op := range a.Outcomes {
			if op.OutcomeIndex != i {
				result.AddError(fmt.Sprintf("action[%d]", a.Index),
					fmt.Sprintf("outcome at position %d has OutcomeIndex %d", i, op.OutcomeIndex),
					"outcome indices must be dense and sorted within a non-deterministic action")
			}
		}
		if prior, ok := seen[a.Index]; ok {
			result.AddError("actions", fmt.Sprintf("duplicate action index %d (also used by %s)", a.Index, prior), "")
		}
		seen[a.Index] = a.Name
	}
}

func checkAssignment(result *ValidationResult, field string, t *task.Task, v, val int) {
	if v < 0 || v >= t.NumVars {
		result.AddError(field, fmt.Sprintf("references unknown variable %d", v), "")
		return
	}
	if val < 0 || val >= t.Domains[v] {
		result.AddError(field, fmt.Sprintf("value %d out of domain [0,%d) for variable %d", val, t.Domains[v], v), "")
	}
}

// Summary renders a result as the CLI's textual report.
func Summary(result *ValidationResult) string {
	var b strings.Builder
	if len(result.Errors) > 0 {
		b.WriteString("validation errors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  - %s\n", e.Error())
		}
	}
	if len(result.Warnings) > 0 {
		b.WriteString("validation warnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "  - %s: %s\n", w.Field, w.Message)
		}
	}
	if result.IsValid() && len(result.Warnings) == 0 {
		b.WriteString("task is structurally valid\n")
	}
	return b.String()
}
