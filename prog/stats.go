package prog

import (
	"fmt"
	"io"
)

// WriteStats outputs the aggregate statistics of one finished process.
func (c *Context) WriteStats(w io.Writer) {
	fmt.Fprintf(w, "[%02d] process %d (%s) finished at %05d\n",
		c.NodeID, c.ID, c.Name, c.FinishTime)
	fmt.Fprintf(w, "     doop %d ops %d ticks, block %d ops %d ticks, wait %d times %d ticks, sent %d, received %d\n",
		c.DoopCount, c.DoopTime, c.BlockCount, c.BlockTime,
		c.WaitCount, c.WaitTime, c.SendCount, c.RecvCount)
}
