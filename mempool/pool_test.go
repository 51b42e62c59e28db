package mempool

import (
	"testing"

	"github.com/ixy-go/ixy/packet"
)

func TestNewRejectsInvalidArgs(t *testing.T) {
	if _, err := New(0, 2048); err == nil {
		t.Error("expected error for zero capacity")
	}

	if _, err := New(4, 0); err == nil {
		t.Error("expected error for zero stride")
	}

	if _, err := New(4, 2047); err == nil {
		t.Error("expected error for stride not dividing huge page size")
	}
}

func TestPopPushConservation(t *testing.T) {
	p, err := New(4, packet.DefaultStride)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	if got := p.Capacity(); got != 4 {
		t.Fatalf("Capacity() = %d, want 4", got)
	}

	if got := p.Size(); got != 4 {
		t.Fatalf("Size() = %d, want 4", got)
	}

	var handles []packet.Handle
	for i := 0; i < 4; i++ {
		h, ok := p.Pop()
		if !ok {
			t.Fatalf("Pop() failed at iteration %d", i)
		}
		handles = append(handles, h)
	}

	if !p.IsEmpty() {
		t.Error("expected pool to be empty after draining capacity buffers")
	}

	if _, ok := p.Pop(); ok {
		t.Error("expected Pop() to fail on empty pool")
	}

	for _, h := range handles {
		if err := p.Push(h); err != nil {
			t.Errorf("Push() failed: %v", err)
		}
	}

	if got := p.Size(); got != 4 {
		t.Errorf("Size() after full round trip = %d, want 4", got)
	}
}

func TestPushRejectsForeignBuffer(t *testing.T) {
	a, err := New(2, packet.DefaultStride)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	b, err := New(2, packet.DefaultStride)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	h, _ := a.Pop()

	if err := b.Push(h); err == nil {
		t.Error("expected error pushing a's buffer into b")
	}

	if err := a.Push(packet.Nil); err == nil {
		t.Error("expected error pushing nil handle")
	}
}

func TestPoolIDsAreUnique(t *testing.T) {
	a, err := New(1, packet.DefaultStride)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	b, err := New(1, packet.DefaultStride)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	if a.ID() == b.ID() {
		t.Error("expected distinct pool ids")
	}
}

func TestRegistryLookup(t *testing.T) {
	p, err := New(1, packet.DefaultStride)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	got, ok := Lookup(p.ID())
	if !ok || got != p {
		t.Fatalf("Lookup(%d) = %v, %v; want %v, true", p.ID(), got, ok, p)
	}

	if _, ok := Lookup(p.ID() + 1_000_000); ok {
		t.Error("expected lookup of unknown id to fail")
	}
}
