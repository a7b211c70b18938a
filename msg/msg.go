// Package msg implements the rendezvous message fabric: a shared table
// of endpoints addressed by node*100+pid, plus per-node completion
// queues for contexts whose SEND/RECV has just matched.
//
// A SEND and its matching RECV complete together or not at all. Matching
// is directional: a RECV pairs only with a SEND whose partner address is
// the receiver's own, and vice versa. An endpoint blocked against a
// third party simply keeps waiting; it is not an error.
package msg

import (
	"fmt"
	"sync"

	"github.com/joeycumines/logiface"

	"github.com/arashtash/prosim/prioq"
	"github.com/arashtash/prosim/prog"
)

// Address-space bounds. Valid node ids and pids are both 1..100.
const (
	MaxNodes = 100
	MaxProcs = 100

	maxAddr = (MaxNodes+2)*100 + (MaxProcs + 2)
)

// Addr returns the external address of a (node, pid) pair.
func Addr(node, pid int) int { return node*100 + pid }

type waitType int

const (
	waitNone waitType = iota
	waitSend
	waitRecv
)

// endpoint is the per-address record. Each endpoint carries its own
// lock so matching stays fine-grained across the address space.
type endpoint struct {
	mu      sync.Mutex
	nodeID  int
	ctx     *prog.Context
	waiting waitType
	partner int // peer address this endpoint is blocked against
}

// nodeQueue holds the completions bound for one node's scheduler,
// min-keyed by pid.
type nodeQueue struct {
	mu    sync.Mutex
	ready prioq.Queue[*prog.Context, int]
	addrs []int // addresses registered on this node
}

// Fabric is the process-wide rendezvous state. Use New to create one.
type Fabric struct {
	ep   []endpoint
	node []nodeQueue
	log  *logiface.Logger[logiface.Event]
}

// New returns an empty fabric. The logger may be nil.
func New(log *logiface.Logger[logiface.Event]) *Fabric {
	return &Fabric{
		ep:   make([]endpoint, maxAddr),
		node: make([]nodeQueue, MaxNodes+1),
		log:  log,
	}
}

func checkAddr(addr int) {
	if addr < 0 || addr >= maxAddr {
		panic(fmt.Sprintf("msg: address %d out of range", addr))
	}
}

func addrOf(c *prog.Context) int { return Addr(c.NodeID, c.ID) }

// Register records the (node, pid) address of a newly admitted process
// so peers can rendezvous with it.
func (f *Fabric) Register(nodeID int, c *prog.Context) {
	if nodeID < 1 || nodeID > MaxNodes || c.ID < 1 || c.ID > MaxProcs {
		panic(fmt.Sprintf("msg: register node %d pid %d out of range", nodeID, c.ID))
	}
	addr := Addr(nodeID, c.ID)

	e := &f.ep[addr]
	e.mu.Lock()
	e.nodeID = nodeID
	e.ctx = c
	e.waiting = waitNone
	e.partner = 0
	e.mu.Unlock()

	nq := &f.node[nodeID]
	nq.mu.Lock()
	nq.addrs = append(nq.addrs, addr)
	nq.mu.Unlock()
}

// lockPair acquires both endpoint locks in ascending address order, the
// fabric-wide deadlock-avoidance discipline. Equal addresses (a process
// messaging itself) take the lock once.
func (f *Fabric) lockPair(a, b int) {
	switch {
	case a == b:
		f.ep[a].mu.Lock()
	case a < b:
		f.ep[a].mu.Lock()
		f.ep[b].mu.Lock()
	default:
		f.ep[b].mu.Lock()
		f.ep[a].mu.Lock()
	}
}

func (f *Fabric) unlockPair(a, b int) {
	f.ep[a].mu.Unlock()
	if a != b {
		f.ep[b].mu.Unlock()
	}
}

// Send attempts to rendezvous sender's SEND with a RECV already waiting
// at recvAddr. On a match both contexts are pushed onto their owning
// nodes' completion queues and the counters are incremented; otherwise
// the sender's endpoint records that it is waiting to send.
func (f *Fabric) Send(sender *prog.Context, recvAddr int) {
	saddr := addrOf(sender)
	checkAddr(recvAddr)

	re := &f.ep[recvAddr]
	f.lockPair(saddr, recvAddr)

	if re.waiting == waitRecv && re.partner == saddr && re.ctx != nil {
		peer := re.ctx
		re.waiting = waitNone
		re.partner = 0
		sender.SendCount++
		peer.RecvCount++
		f.unlockPair(saddr, recvAddr)

		f.pushDone(sender)
		f.pushDone(peer)
		f.log.Debug().
			Int("send", saddr).
			Int("recv", recvAddr).
			Log("rendezvous matched")
		return
	}

	se := &f.ep[saddr]
	se.waiting = waitSend
	se.partner = recvAddr
	f.unlockPair(saddr, recvAddr)
}

// Recv is the mirror image of Send: it matches a SEND already waiting
// at sendAddr, or records the receiver as waiting to receive.
func (f *Fabric) Recv(receiver *prog.Context, sendAddr int) {
	raddr := addrOf(receiver)
	checkAddr(sendAddr)

	se := &f.ep[sendAddr]
	f.lockPair(raddr, sendAddr)

	if se.waiting == waitSend && se.partner == raddr && se.ctx != nil {
		peer := se.ctx
		se.waiting = waitNone
		se.partner = 0
		receiver.RecvCount++
		peer.SendCount++
		f.unlockPair(raddr, sendAddr)

		f.pushDone(receiver)
		f.pushDone(peer)
		f.log.Debug().
			Int("send", sendAddr).
			Int("recv", raddr).
			Log("rendezvous matched")
		return
	}

	re := &f.ep[raddr]
	re.waiting = waitRecv
	re.partner = sendAddr
	f.unlockPair(raddr, sendAddr)
}

// pushDone queues a matched context for reinjection by its owning node.
// Endpoint locks are never held across this call.
func (f *Fabric) pushDone(c *prog.Context) {
	nq := &f.node[c.NodeID]
	nq.mu.Lock()
	nq.ready.Add(c, c.ID)
	nq.mu.Unlock()
}

// CollectReady drains up to max matched contexts for the given node, in
// ascending pid order.
func (f *Fabric) CollectReady(nodeID, max int) []*prog.Context {
	nq := &f.node[nodeID]
	nq.mu.Lock()
	defer nq.mu.Unlock()

	var out []*prog.Context
	for len(out) < max && !nq.ready.Empty() {
		out = append(out, nq.ready.Remove())
	}
	return out
}

// HasBlockedOrReady reports whether the node still has queued
// completions, or any endpoint it owns waiting on a SEND/RECV. The
// scheduler uses it as part of its termination predicate.
func (f *Fabric) HasBlockedOrReady(nodeID int) bool {
	nq := &f.node[nodeID]
	nq.mu.Lock()
	pending := !nq.ready.Empty()
	addrs := nq.addrs
	nq.mu.Unlock()
	if pending {
		return true
	}

	for _, addr := range addrs {
		e := &f.ep[addr]
		e.mu.Lock()
		waiting := e.waiting != waitNone
		e.mu.Unlock()
		if waiting {
			return true
		}
	}
	return false
}
