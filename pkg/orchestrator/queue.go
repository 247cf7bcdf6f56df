package orchestrator

import "github.com/tracewell/remotedbg/pkg/registry"

// queueEntry is an agent waiting for any device, ordered strictly FIFO by
// insertion. assigned carries the device once wakeNext hands one to this
// entry; it is buffered so the send inside wakeNext (done while holding the
// pool mutex) never blocks. An entry is removed from the queue only once:
// by a wakeNext assignment, by a timeout splice, or by CleanupAgent's splice
// of the agent's entries — all hold the pool mutex, so exactly one of those
// outcomes occurs per entry.
type queueEntry struct {
	agentID   string
	requestID string
	assigned  chan *registry.Device
}

func newQueueEntry(agentID, requestID string) *queueEntry {
	return &queueEntry{
		agentID:   agentID,
		requestID: requestID,
		assigned:  make(chan *registry.Device, 1),
	}
}

// removeEntry splices entry out of queue, preserving order, and reports
// whether it was found. Caller must hold the pool mutex.
func removeEntry(queue []*queueEntry, entry *queueEntry) ([]*queueEntry, bool) {
	for i, e := range queue {
		if e == entry {
			return append(queue[:i:i], queue[i+1:]...), true
		}
	}
	return queue, false
}

// removeByAgent splices every entry belonging to agentID out of queue,
// preserving order. Caller must hold the pool mutex.
func removeByAgent(queue []*queueEntry, agentID string) []*queueEntry {
	out := queue[:0:0]
	for _, e := range queue {
		if e.agentID != agentID {
			out = append(out, e)
		}
	}
	return out
}
