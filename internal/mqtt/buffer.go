package mqtt

import "log"

// queuedMsg is a serialized message held while the broker is unreachable.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue keeps the most recent messages up to a fixed capacity,
// dropping the oldest. Caller must synchronize.
type offlineQueue struct {
	msgs    []queuedMsg
	next    int // slot the next push writes
	n       int
	dropped int // messages lost since last drain
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{msgs: make([]queuedMsg, capacity)}
}

func (q *offlineQueue) push(m queuedMsg) {
	size := len(q.msgs)
	if q.n == size {
		if q.dropped == 0 {
			log.Printf("mqtt: offline queue full (%d messages), dropping oldest", size)
		}
		q.dropped++
	} else {
		q.n++
	}
	q.msgs[q.next] = m
	q.next = (q.next + 1) % size
}

// drain returns queued messages oldest first and empties the queue.
func (q *offlineQueue) drain() []queuedMsg {
	if q.n == 0 {
		return nil
	}

	size := len(q.msgs)
	out := make([]queuedMsg, 0, q.n)
	for i := q.next - q.n; i < q.next; i++ {
		out = append(out, q.msgs[(i+size)%size])
	}

	q.n, q.next, q.dropped = 0, 0, 0
	return out
}

func (q *offlineQueue) len() int {
	return q.n
}
