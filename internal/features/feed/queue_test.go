package feed

import (
	"testing"
	"time"
)

func TestDelayedQueueOrdersByTime(t *testing.T) {
	q := NewDelayedQueue(KindSmallBurst)
	q.Push(t0.Add(3*time.Second), Win{Username: "c"})
	q.Push(t0.Add(1*time.Second), Win{Username: "a"})
	q.Push(t0.Add(2*time.Second), Win{Username: "b"})

	var got []string
	for q.Len() > 0 {
		w, wait, ok := q.Next(t0.Add(time.Minute))
		if !ok || wait != 0 {
			t.Fatalf("Next: ok=%v wait=%v", ok, wait)
		}
		if w.Kind != KindSmallBurst {
			t.Fatalf("kind = %s, want small-burst", w.Kind)
		}
		got = append(got, w.Username)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("order = %v", got)
	}
}

func TestDelayedQueueWaitsForHead(t *testing.T) {
	q := NewDelayedQueue(KindMicroBurst)
	if _, _, ok := q.Next(t0); ok {
		t.Fatal("empty queue must report ok=false")
	}

	q.Push(t0.Add(4*time.Second), Win{})
	_, wait, ok := q.Next(t0)
	if !ok || wait != 4*time.Second {
		t.Fatalf("Next = wait %v ok %v, want 4s true", wait, ok)
	}
	if q.Len() != 1 {
		t.Fatal("waiting must not pop the head")
	}

	if _, wait, _ := q.Next(t0.Add(4 * time.Second)); wait != 0 || q.Len() != 0 {
		t.Fatalf("head should be due exactly at its time, wait=%v len=%d", wait, q.Len())
	}
}
