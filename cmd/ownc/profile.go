package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"ownc/internal/driverio"
	"ownc/internal/ids"
	"ownc/internal/profile"
	"ownc/internal/trace"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect published data-flow profiles",
}

var profileDumpCmd = &cobra.Command{
	Use:   "dump [fixtures...]",
	Short: "Run data-flow profile inference and print each published function's signature and path count",
	Args:  cobra.MinimumNArgs(1),
	RunE:  profileDumpExecution,
}

func init() {
	profileCmd.AddCommand(profileDumpCmd)
}

func profileDumpExecution(cmd *cobra.Command, args []string) error {
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

	w := cmd.OutOrStdout()
	for _, fx := range fixtures {
		store, err := profile.Infer(fx.Program, fx.ClassOf)
		if err != nil {
			return fmt.Errorf("%s: %w", fx.Path, err)
		}
		names := make([]ids.QualifiedName, 0, len(fx.Program.Functions))
		for name := range fx.Program.Functions {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })

		for _, name := range names {
			p, ok := store.Profile(name)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s: %d data-flow path(s), %s\n", name, len(p.Paths), p.Signature.Key())
		}
	}
	return nil
}
