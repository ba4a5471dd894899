// Package main implements the ownc CLI: check, build, and profile dump
// over msgpack-encoded resolved-IR fixtures, grounded on the teacher's
// cmd/surge/main.go root-command wiring (persistent flags for color/trace,
// an applyTracer call in each command that attaches the tracer to that
// command's context, and a top-level recover that
// turns a ConvergenceFailure panic - the one place the core panics instead
// of returning an error, per §11 - back into a reported exit code).
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ownc/internal/diag"
	"ownc/internal/trace"
)

var rootCmd = &cobra.Command{
	Use:   "ownc",
	Short: "Ownership/borrow-inference compiler core driver",
	Long:  "ownc runs the ownership and borrow inference pipeline over resolved-IR fixtures.",
}

func main() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|phase|detail)")
	rootCmd.PersistentFlags().Int("jobs", 0, "parallel fixture-load workers (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().String("project", "ownc.toml", "path to the project manifest")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(profileCmd)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the root command, converting a ConvergenceFailure panic -
// the one deliberate panic in the core, per §11's iteration-budget safety
// valve - back into an ordinary reported error rather than a stack trace,
// the same job the teacher's top-level main.go recover wrapper does.
func run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(diag.Diagnostic); ok {
				err = d
				return
			}
			panic(r)
		}
	}()
	return rootCmd.Execute()
}

func applyColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return !color.NoColor, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}

func applyTracer(cmd *cobra.Command) (trace.Tracer, error) {
	levelFlag, err := cmd.Root().PersistentFlags().GetString("trace-level")
	if err != nil {
		return trace.Nop, err
	}
	level, err := trace.ParseLevel(levelFlag)
	if err != nil {
		return trace.Nop, err
	}
	return trace.NewStreamTracer(cmd.ErrOrStderr(), level), nil
}
