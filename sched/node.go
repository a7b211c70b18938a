package sched

import (
	"fmt"

	"github.com/joeycumines/logiface"

	"github.com/arashtash/prosim/prioq"
	"github.com/arashtash/prosim/prog"
)

// Node is the per-node scheduler state. Except for the shared Simulator
// it is confined to its worker goroutine and needs no locking.
type Node struct {
	sim     *Simulator
	id      int
	ready   prioq.Queue[*prog.Context, int]
	blocked prioq.Queue[*prog.Context, int] // keyed by absolute wake-up time
	cur     *prog.Context                   // at most one running process
	quantum int                             // ticks left in cur's quantum
	clock   int
	nextPID int
	log     *logiface.Logger[logiface.Event]
}

func (s *Simulator) newNode(id int) *Node {
	return &Node{
		sim:     s,
		id:      id,
		nextPID: 1,
		log:     s.log.Clone().Int("node", id).Logger(),
	}
}

// actualPriority maps a process to its ready-queue key: the declared
// priority, or the remaining effort when the declared priority is
// negative (shortest-job-first). Lower value wins.
func actualPriority(p *prog.Context) int {
	if p.Priority < 0 {
		return p.Duration
	}
	return p.Priority
}

// admit assigns the process its pid, registers its rendezvous address,
// and queues it on its first effort op.
func (n *Node) admit(p *prog.Context) {
	p.ID = n.nextPID
	n.nextPID++
	p.State = prog.StateNew
	n.sim.trace.Transition(n.id, n.clock, p.ID, p.State)

	n.sim.fabric.Register(n.id, p)
	n.insert(p, true)
	n.log.Debug().Str("name", p.Name).Int("pid", p.ID).Log("admitted")
}

// insert dispatches a process to the queue its new current op calls
// for. When nextOp is set the current primitive is done and the
// instruction pointer moves first; a preempted DOOP keeps its remaining
// duration instead.
func (n *Node) insert(p *prog.Context, nextOp bool) {
	if nextOp {
		if p.NextOp() < 0 {
			panic(fmt.Sprintf("sched: malformed opcode stream in process %s", p.Name))
		}
	}

	switch op := p.CurOp(); op {
	case prog.OpDoop, prog.OpSend, prog.OpRecv:
		p.State = prog.StateReady
		if op == prog.OpDoop {
			if nextOp {
				p.Duration = p.CurDuration()
			}
		} else {
			// One CPU tick before it blocks on the message op, so
			// SEND/RECV are not starved under SJF.
			p.Duration = 1
		}
		n.ready.Add(p, actualPriority(p))
		p.WaitCount++
		p.EnqueueTime = n.clock
	case prog.OpBlock:
		p.State = prog.StateBlocked
		p.Duration = n.clock + p.CurDuration() // absolute wake-up time
		p.BlockCount++
		n.blocked.Add(p, p.Duration)
	case prog.OpHalt:
		p.State = prog.StateFinished
		n.sim.finish(n.clock, n.id, p)
	}
	n.sim.trace.Transition(n.id, n.clock, p.ID, p.State)
}

// run executes the tick loop until the node has no runnable, blocked or
// message-waiting work left. Three barriers per tick separate its four
// phases and keep every node on the same clock value through each phase.
func (n *Node) run() {
	// All nodes start tick 0 together.
	n.sim.bar.Wait()

	for !n.ready.Empty() || !n.blocked.Empty() || n.cur != nil ||
		n.sim.fabric.HasBlockedOrReady(n.id) {
		preempt := false

		// Phase A: reintegrate rendezvous completions and expired
		// BLOCKs, noting whether any newcomer outranks the running
		// process.
		for _, p := range n.sim.fabric.CollectReady(n.id, collectMax) {
			n.insert(p, true)
			preempt = preempt || n.outranked(p)
		}
		for !n.blocked.Empty() {
			p := n.blocked.Peek()
			if p.Duration > n.clock {
				break
			}
			n.blocked.Remove()
			p.BlockTime += n.clock - (p.Duration - p.CurDuration())
			n.insert(p, true)
			preempt = preempt || n.outranked(p)
		}

		n.sim.bar.Wait()

		// Phase B: advance the running process by one tick.
		if cur := n.cur; cur != nil {
			switch cur.CurOp() {
			case prog.OpDoop:
				cur.Duration--
				cur.DoopTime++
				n.quantum--
				if cur.Duration == 0 {
					cur.DoopCount++
				}
				if cur.Duration == 0 || n.quantum == 0 || preempt {
					n.insert(cur, cur.Duration == 0)
					n.cur = nil
				}
			case prog.OpSend:
				n.quantum--
				cur.DoopTime++ // issuing the SEND consumes a CPU tick
				n.sim.fabric.Send(cur, cur.CurDuration())
				cur.State = prog.StateBlockedSend
				n.sim.trace.Transition(n.id, n.clock, cur.ID, cur.State)
				n.cur = nil
			case prog.OpRecv:
				n.quantum--
				cur.DoopTime++
				n.sim.fabric.Recv(cur, cur.CurDuration())
				cur.State = prog.StateBlockedRecv
				n.sim.trace.Transition(n.id, n.clock, cur.ID, cur.State)
				n.cur = nil
			default:
				panic(fmt.Sprintf("sched: process %d running op %d", cur.ID, cur.CurOp()))
			}
		}

		n.sim.bar.Wait()

		// Phase C: dispatch the highest-priority ready process.
		if n.cur == nil && !n.ready.Empty() {
			cur := n.ready.Remove()
			cur.WaitTime += n.clock - cur.EnqueueTime
			n.quantum = n.sim.quantum
			cur.State = prog.StateRunning
			n.cur = cur
			n.sim.trace.Transition(n.id, n.clock, cur.ID, cur.State)
		}

		n.sim.bar.Wait()

		// Phase D: advance logical time.
		n.clock++
	}
}

// outranked reports whether a just-reinjected process preempts the
// running one: strictly better actual priority, and only if the
// newcomer actually landed on the ready queue.
func (n *Node) outranked(p *prog.Context) bool {
	return n.cur != nil && p.State == prog.StateReady &&
		actualPriority(n.cur) > actualPriority(p)
}
