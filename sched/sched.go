// Package sched drives the simulation: one Node per processing node,
// each running the four-phase tick loop on its own goroutine, all
// advancing through shared logical time in lockstep on a phased barrier.
package sched

import (
	"io"
	"sync"

	"github.com/joeycumines/logiface"

	"github.com/arashtash/prosim/barrier"
	"github.com/arashtash/prosim/msg"
	"github.com/arashtash/prosim/prioq"
	"github.com/arashtash/prosim/prog"
	"github.com/arashtash/prosim/trace"
)

// collectMax caps how many rendezvous completions a node reintegrates
// per tick.
const collectMax = 256

// Simulator owns the process-wide state: the configured quantum, the
// barrier, the rendezvous fabric, and the finished queue. One Simulator
// is shared by reference across all node workers.
type Simulator struct {
	quantum int
	nnodes  int
	bar     *barrier.Barrier
	fabric  *msg.Fabric
	trace   *trace.Logger
	log     *logiface.Logger[logiface.Event]

	mu       sync.Mutex
	finished prioq.Queue[*prog.Context, int]
}

// New returns a Simulator for nnodes nodes with the given CPU quantum.
// State transitions are written to tr; log carries the structured
// diagnostics and may be nil.
func New(quantum, nnodes int, tr *trace.Logger, log *logiface.Logger[logiface.Event]) *Simulator {
	return &Simulator{
		quantum: quantum,
		nnodes:  nnodes,
		bar:     barrier.New(nnodes),
		fabric:  msg.New(log),
		trace:   tr,
		log:     log,
	}
}

// Run spawns one worker goroutine per node, admits each process to its
// declared node, simulates to completion, and joins the workers.
// Processes declaring a node outside [1, nnodes] are never admitted.
func (s *Simulator) Run(procs []*prog.Context) {
	for _, p := range procs {
		if p.NodeID > s.nnodes {
			s.log.Warning().
				Str("name", p.Name).
				Int("node", p.NodeID).
				Log("process assigned to nonexistent node, skipping")
		}
	}

	var wg sync.WaitGroup
	for id := 1; id <= s.nnodes; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			n := s.newNode(id)
			for _, p := range procs {
				if p.NodeID == id {
					n.admit(p)
				}
			}
			n.run()
			s.bar.Done()
			n.log.Debug().Log("node worker departed")
		}(id)
	}
	wg.Wait()
}

// finish places a terminated process on the global finished queue,
// keyed so the summary comes out ordered by (finish time, node, pid).
func (s *Simulator) finish(clock, nodeID int, p *prog.Context) {
	p.FinishTime = clock
	s.mu.Lock()
	s.finished.Add(p, clock*msg.MaxNodes*msg.MaxProcs+nodeID*msg.MaxProcs+p.ID)
	s.mu.Unlock()
}

// WriteSummary drains the finished queue and writes each process's
// statistics in order of completion.
func (s *Simulator) WriteSummary(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.finished.Empty() {
		s.finished.Remove().WriteStats(w)
	}
}
