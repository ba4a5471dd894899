// Package driverio is the CLI driver's fixture-loading stage: it reads N
// msgpack-encoded resolved-IR files concurrently (pure I/O and decode,
// per §5) and hands each back as an independent *ir.Program for the
// single-threaded core to run sequentially. Grounded on the teacher's
// internal/driver/parallel.go (errgroup.WithContext + SetLimit over a
// fixed file list, results written into a pre-sized slice by index so
// output order matches input order regardless of completion order).
package driverio

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"ownc/internal/ir"
	"ownc/internal/ownfmt"
	"ownc/internal/trace"
)

// Fixture is one decoded compilation unit.
type Fixture struct {
	Path    string
	Program *ir.Program
	ClassOf map[ir.TypeRef]*ir.Class
}

// LoadAll reads and decodes every path in paths concurrently, bounded by
// jobs goroutines (GOMAXPROCS if jobs <= 0). It returns the first load or
// decode error once every started read has finished: errgroup.WithContext
// cancels gctx on that error, so reads that have not started yet are
// skipped, while reads already in flight run to completion.
func LoadAll(ctx context.Context, paths []string, jobs int) ([]Fixture, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Fixture, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(paths), 1)))

	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "load_fixtures")
	defer sp.End(fmt.Sprintf("files=%d", len(paths)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			program, classOf, err := ownfmt.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: decode: %w", path, err)
			}
			results[i] = Fixture{Path: path, Program: program, ClassOf: classOf}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
