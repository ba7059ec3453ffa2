package testfixtures

import (
	"sync"
	"testing"
)

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("session")

	if peek := gen.Peek(); peek != "session-1" {
		t.Fatalf("expected session-1 from Peek, got %q", peek)
	}
	first := gen.Next()
	second := gen.Next()
	if first != "session-1" || second != "session-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued ids, got %d", gen.Issued())
	}
}

func TestIDGeneratorIsSafeForConcurrentUse(t *testing.T) {
	gen := NewIDGenerator("")
	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, dup := seen.LoadOrStore(gen.Next(), true); dup {
				t.Error("duplicate identifier issued")
			}
		}()
	}
	wg.Wait()

	if gen.Issued() != 50 {
		t.Fatalf("expected 50 issued ids, got %d", gen.Issued())
	}
	if next := gen.Next(); next != "id-51" {
		t.Fatalf("expected default prefix id, got %q", next)
	}
}
