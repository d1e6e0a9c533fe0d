package commands

import (
	"fmt"

	"fondsynth.dev/planner/internal/validation"
)

// ValidateCommand runs the structural pre-flight checks of spec.md 7
// against a task document, without attempting to solve it.
type ValidateCommand struct {
	TaskFile string `name:"task" help:"Task document to validate (- for stdin)" required:"" type:"path"`
}

// Run executes the validate command.
func (cmd *ValidateCommand) Run() error {
	fmt.Printf("validating task file: %s\n\n", cmd.TaskFile)

	t, err := loadTask(cmd.TaskFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", cmd.TaskFile, err)
	}

	result := validation.ValidateTask(t)
	fmt.Print(validation.Summary(result))

	if !result.IsValid() {
		return fmt.Errorf("validation failed")
	}

	return nil
}
