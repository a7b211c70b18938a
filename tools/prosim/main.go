// The prosim command simulates a small multi-node operating-system
// kernel: per-node preemptive schedulers advancing through shared
// logical time in lockstep, with rendezvous message passing between
// processes on any pair of nodes.
//
// Usage:
//
//	prosim [-v] [-f workload]
//
// The workload is read from standard input unless -f names a file. Its
// first line is "num_procs quantum num_nodes"; each process follows as
// a "name priority node" header line (negative priority selects
// shortest-job-first) and one opcode per line through HALT.
//
// Per-process state transitions are written to standard output, then a
// summary of every process in order of completion. Structured
// diagnostics go to standard error; -v raises their level to debug.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/arashtash/prosim/prog"
	"github.com/arashtash/prosim/sched"
	"github.com/arashtash/prosim/trace"
)

var (
	verbose  = flag.Bool("v", false, "enable debug diagnostics on stderr")
	workload = flag.String("f", "", "read the workload from this file instead of stdin")
)

func main() {
	flag.Parse()

	level := logiface.LevelWarning
	if *verbose {
		level = logiface.LevelDebug
	}
	log := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	in := io.Reader(os.Stdin)
	if *workload != "" {
		f, err := os.Open(*workload)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, log *logiface.Logger[logiface.Event]) error {
	r := prog.NewReader(in)

	numProcs, quantum, numNodes, err := r.Header()
	if err != nil {
		return fmt.Errorf("bad input, expecting # of processes, quantum, and # of nodes: %w", err)
	}

	procs := make([]*prog.Context, numProcs)
	for i := range procs {
		if procs[i], err = r.Load(); err != nil {
			return fmt.Errorf("bad input, could not load program description: %w", err)
		}
	}

	log.Info().
		Int("procs", numProcs).
		Int("quantum", quantum).
		Int("nodes", numNodes).
		Log("workload loaded")

	sim := sched.New(quantum, numNodes, trace.New(out), log)
	sim.Run(procs)
	sim.WriteSummary(out)
	return nil
}
