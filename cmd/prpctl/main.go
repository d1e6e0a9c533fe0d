package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"fondsynth.dev/planner/internal/commands"
	"fondsynth.dev/planner/internal/psgraph"
)

var CLI struct {
	Solve    commands.SolveCommand    `cmd:"" help:"Solve a task, emitting a strong-cyclic (or best-effort) policy" default:"withargs"`
	Validate commands.ValidateCommand `cmd:"" help:"Run structural validation on a task document"`
	Config   commands.ConfigCommand   `cmd:"" help:"Manage configuration"`
}

const banner = `
 _ __  _ __ _ __   ___| |_| |
| '_ \| '__| '_ \ / __| __| |
| |_) | |  | |_) | (__| |_| |
| .__/|_|  | .__/ \___|\__|_|
|_|        |_|

FOND planner - strong-cyclic policies from PRP-style replanning
`

func main() {
	log.SetLevel(log.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("prpctl"),
		kong.Description("Solve Fully-Observable Non-Deterministic planning tasks."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: false,
			Summary: true,
		}),
	)

	if ctx.Command() == "" {
		fmt.Println(banner)
		fmt.Println("Quick start:")
		fmt.Println("  $ prpctl config init                   # create a config file")
		fmt.Println("  $ prpctl validate --task task.json      # check a task document")
		fmt.Println("  $ prpctl solve --task task.json         # solve it")
		fmt.Println()
		fmt.Println("Run 'prpctl --help' for all commands")
		os.Exit(0)
	}

	os.Exit(run(ctx))
}

// run recovers a psgraph.InvariantViolation only here, at the top level,
// so a structural bug during development is logged with its stack trace
// and exits with code 2 rather than producing a silently wrong policy
// (spec.md 7).
func run(ctx *kong.Context) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(psgraph.InvariantViolation); ok {
				log.Error("internal invariant violated", "error", iv.Error(), "stack", string(debug.Stack()))
				exitCode = 2
				return
			}
			panic(r)
		}
	}()

	err := ctx.Run()
	if err == nil {
		return 0
	}

	if _, ok := err.(*commands.BestEffortError); ok {
		log.Warn("solve finished without a strong-cyclic policy", "error", err)
		return 1
	}

	log.Error("command failed", "error", err)
	return 2
}
