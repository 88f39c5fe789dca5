package eventlog

import (
	"fmt"
	"testing"
)

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	l := New(10)

	e := l.Append("orders/create", []byte(`{"id":1}`))
	if e.ID == "" {
		t.Error("expected generated id")
	}
	if e.ReceivedAt.IsZero() {
		t.Error("expected receipt timestamp")
	}
	if e.Topic != "orders/create" {
		t.Errorf("unexpected topic %q", e.Topic)
	}
}

func TestAppendCopiesPayload(t *testing.T) {
	l := New(10)

	payload := []byte(`{"id":1}`)
	e := l.Append("orders/create", payload)
	payload[2] = 'X'

	if string(e.Payload) != `{"id":1}` {
		t.Errorf("payload must be copied, got %s", e.Payload)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	l := New(3)

	for i := 0; i < 5; i++ {
		l.Append("orders/create", []byte(fmt.Sprintf(`{"id":%d}`, i)))
	}

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries at capacity, got %d", len(entries))
	}
	if string(entries[0].Payload) != `{"id":2}` {
		t.Errorf("expected oldest entries evicted, first is %s", entries[0].Payload)
	}
}

func TestListDeduplicatesByPayload(t *testing.T) {
	l := New(10)

	l.Append("orders/create", []byte(`{"id":1}`))
	l.Append("orders/create", []byte(`{"id":1}`))
	l.Append("orders/updated", []byte(`{"id":2}`))

	if l.Len() != 3 {
		t.Errorf("all deliveries are stored, got %d", l.Len())
	}
	listed := l.List()
	if len(listed) != 2 {
		t.Errorf("expected 2 deduplicated entries, got %d", len(listed))
	}
}

func TestReset(t *testing.T) {
	l := New(10)
	l.Append("orders/create", []byte(`{}`))
	l.Reset()
	if l.Len() != 0 {
		t.Errorf("expected empty log after reset, got %d", l.Len())
	}
}
