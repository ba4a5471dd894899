package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ownc/internal/diag"
	"ownc/internal/driverio"
	"ownc/internal/profile"
	"ownc/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [fixtures...]",
	Short: "Run ownership/borrow inference over one or more resolved-IR fixtures without emitting output",
	Args:  cobra.MinimumNArgs(1),
	RunE:  checkExecution,
}

func checkExecution(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return err
	}
	tracer, err := applyTracer(cmd)
	if err != nil {
		return err
	}
	ctx := trace.WithTracer(context.Background(), tracer)

	fixtures, err := driverio.LoadAll(ctx, args, jobs)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	bag := diag.NewBag()
	for _, fx := range fixtures {
		if _, err := profile.Infer(fx.Program, fx.ClassOf); err != nil {
			if d, ok := err.(diag.Diagnostic); ok {
				bag.Add(d)
				continue
			}
			return fmt.Errorf("%s: %w", fx.Path, err)
		}
	}

	bag.Sort()
	if bag.Len() > 0 {
		showColor, err := applyColor(cmd)
		if err != nil {
			return err
		}
		renderBag(cmd, bag, showColor)
		return fmt.Errorf("check failed: %d diagnostic(s)", bag.Len())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d fixture(s) checked\n", len(fixtures))
	return nil
}
