package commands

import (
	"fmt"
	"os"

	"fondsynth.dev/planner/internal/config"
)

// ConfigCommand manages configuration.
type ConfigCommand struct {
	Init ConfigInitCommand `cmd:"" help:"Create a new configuration file"`
}

// ConfigInitCommand writes an example config file.
type ConfigInitCommand struct {
	Output string `name:"output" help:"Output path for config file" default:"prpctl.yaml"`
	Force  bool   `name:"force" help:"Overwrite existing file"`
}

// Run executes the config init command.
func (cmd *ConfigInitCommand) Run() error {
	if _, err := os.Stat(cmd.Output); err == nil && !cmd.Force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cmd.Output)
	}

	if err := os.WriteFile(cmd.Output, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("created configuration file: %s\n", cmd.Output)
	fmt.Println("edit it, then run `prpctl solve --task <file> --config " + cmd.Output + "`")

	return nil
}
