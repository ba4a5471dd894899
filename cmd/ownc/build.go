package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ownc/internal/config"
	"ownc/internal/driverio"
	"ownc/internal/ids"
	"ownc/internal/ir"
	"ownc/internal/mono"
	"ownc/internal/ownfmt"
	"ownc/internal/trace"
)

var buildCmd = &cobra.Command{
	Use:   "build [fixtures...]",
	Short: "Monomorphize the entry point reachable from one or more resolved-IR fixtures",
	Args:  cobra.MinimumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	buildCmd.Flags().String("entry", "", "entry function as module::name (defaults to the project manifest's [project].entry)")
	buildCmd.Flags().Bool("dump", false, "print each instantiated function body as text instead of writing a msgpack blob")
	buildCmd.Flags().String("out", "", "output path for the msgpack-encoded monomorphized program (required unless --dump)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return err
	}
	dump, err := cmd.Flags().GetBool("dump")
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if !dump && out == "" {
		return fmt.Errorf("--out is required unless --dump is set")
	}

	entry, err := resolveEntry(cmd)
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

	var found *driverio.Fixture
	for i := range fixtures {
		if _, ok := fixtures[i].Program.Functions[entry]; ok {
			found = &fixtures[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("entry point %s not found in any loaded fixture", entry)
	}

	program, err := mono.Monomorphize(found.Program, found.ClassOf, entry)
	if err != nil {
		return err
	}

	if dump {
		return dumpProgram(cmd, program)
	}
	return writeProgram(program, out)
}

func dumpProgram(cmd *cobra.Command, program *mono.Program) error {
	w := cmd.OutOrStdout()
	for _, mf := range program.Functions {
		fmt.Fprintf(w, "-- %s --\n", mf.Signature.Key())
		if mf.Body != nil {
			if err := ir.Dump(w, mf.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeProgram(program *mono.Program, out string) error {
	sink := ownfmt.MsgpackSink{Write: func(data []byte) error {
		return os.WriteFile(out, data, 0o644)
	}}
	return sink.Emit(program)
}

func resolveEntry(cmd *cobra.Command) (ids.QualifiedName, error) {
	entryFlag, err := cmd.Flags().GetString("entry")
	if err != nil {
		return ids.QualifiedName{}, err
	}
	if entryFlag == "" {
		projectPath, err := cmd.Root().PersistentFlags().GetString("project")
		if err != nil {
			return ids.QualifiedName{}, err
		}
		proj, err := config.Load(projectPath)
		if err != nil {
			return ids.QualifiedName{}, err
		}
		entryFlag = proj.Entry
	}
	return parseQualifiedName(entryFlag)
}

// parseQualifiedName splits on the last "::", since a module path may
// itself contain earlier "::" segments.
func parseQualifiedName(s string) (ids.QualifiedName, error) {
	idx := strings.LastIndex(s, "::")
	if idx < 0 {
		return ids.QualifiedName{}, fmt.Errorf("entry %q must be module::name", s)
	}
	return ids.QualifiedName{Module: s[:idx], Name: s[idx+2:]}, nil
}
