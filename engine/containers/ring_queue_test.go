package containers

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/cumulus/engine/core"
)

func TestRingQueueOrderAndWrap(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := rq.Enqueue(4); !errors.Is(err, core.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	v, _ := rq.Dequeue()
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	if err := rq.Enqueue(4); err != nil {
		t.Fatalf("enqueue after dequeue: %v", err)
	}

	for _, want := range []int{2, 3, 4} {
		got, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, core.ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestRingQueuePeek(t *testing.T) {
	rq := NewRingQueue[string](2)
	if _, err := rq.Peek(); err == nil {
		t.Fatal("peek on empty queue should fail")
	}
	_ = rq.Enqueue("a")
	v, err := rq.Peek()
	if err != nil || v != "a" {
		t.Fatalf("peek = %q, %v", v, err)
	}
	if rq.Len() != 1 {
		t.Fatalf("peek must not consume, len = %d", rq.Len())
	}
}
