// Package trace emits the per-process state-transition log.
package trace

import (
	"fmt"
	"io"
	"sync"

	"github.com/arashtash/prosim/prog"
)

// Logger writes one line per state transition. A single lock serializes
// writers so lines from concurrent node workers stay intact.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger { return &Logger{w: w} }

// Transition logs that process pid on the given node entered state at
// the given clock time.
func (l *Logger) Transition(node, clock, pid int, state prog.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%02d] %05d: process %d %s\n", node, clock, pid, state)
}
