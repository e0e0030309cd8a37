package regions

import (
	"errors"
	"testing"
)

func TestResolve_HigherPriorityWins(t *testing.T) {
	got, err := Resolve([]Candidate{{ID: "A", Priority: 1}, {ID: "B", Priority: 2}})
	if err != nil || got.ID != "B" {
		t.Fatalf("got %+v err=%v, want B", got, err)
	}
}

func TestResolve_ChildOverridesParent(t *testing.T) {
	got, err := Resolve([]Candidate{{ID: "B", Priority: 2}, {ID: "A", Priority: 1, Parent: "B"}})
	if err != nil || got.ID != "A" {
		t.Fatalf("got %+v err=%v, want A", got, err)
	}
}

func TestResolve_EqualUnrelatedIsAmbiguous(t *testing.T) {
	_, err := Resolve([]Candidate{{ID: "A", Priority: 1}, {ID: "C", Priority: 1}})
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if amb.A != "A" || amb.B != "C" {
		t.Fatalf("unexpected pair: %+v", amb)
	}
}

func TestResolve_LowerPriorityAfterBestIsAmbiguous(t *testing.T) {
	// Order-sensitive: [B(2), A(1)] fails even though [A(1), B(2)] resolves.
	_, err := Resolve([]Candidate{{ID: "B", Priority: 2}, {ID: "A", Priority: 1}})
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
}

func TestResolve_EmptyAndSingle(t *testing.T) {
	if _, err := Resolve(nil); !errors.Is(err, ErrNoRegion) {
		t.Fatalf("expected ErrNoRegion, got %v", err)
	}
	got, err := Resolve([]Candidate{{ID: "only", Priority: -5}})
	if err != nil || got.ID != "only" {
		t.Fatalf("single candidate: got %+v err=%v", got, err)
	}
}
