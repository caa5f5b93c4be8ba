package mqtt

import (
	"testing"
)

func TestOfflineQueueEmptyDrain(t *testing.T) {
	q := newOfflineQueue(10)
	if got := q.drain(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestOfflineQueuePushAndDrain(t *testing.T) {
	q := newOfflineQueue(10)
	for i := 0; i < 5; i++ {
		q.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if q.len() != 5 {
		t.Fatalf("len: got %d, want 5", q.len())
	}

	got := q.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if q.drain() != nil {
		t.Error("expected nil from second drain")
	}
}

func TestOfflineQueueDropsOldest(t *testing.T) {
	q := newOfflineQueue(5)
	for i := 0; i < 8; i++ {
		q.push(queuedMsg{payload: []byte{byte(i)}})
	}
	if q.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", q.dropped)
	}

	got := q.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		if want := byte(i + 3); got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
	if q.dropped != 0 {
		t.Error("drain should reset dropped counter")
	}
}

func TestOfflineQueueReuseAfterDrain(t *testing.T) {
	q := newOfflineQueue(3)
	q.push(queuedMsg{payload: []byte{1}})
	q.push(queuedMsg{payload: []byte{2}})
	q.drain()

	q.push(queuedMsg{payload: []byte{9}})
	got := q.drain()
	if len(got) != 1 || got[0].payload[0] != 9 {
		t.Errorf("unexpected drain after reuse: %+v", got)
	}
}

func TestOfflineQueueKeepsFlags(t *testing.T) {
	q := newOfflineQueue(2)
	q.push(queuedMsg{topic: TopicSystem, qos: 1, retained: true})

	got := q.drain()
	if got[0].topic != TopicSystem || got[0].qos != 1 || !got[0].retained {
		t.Errorf("flags not preserved: %+v", got[0])
	}
}
