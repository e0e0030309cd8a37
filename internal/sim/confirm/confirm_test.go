package confirm

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestConfirm_Window(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	prompts := 0
	g := New(0, func(actor, command, prompt string) {
		if actor != "alice" || prompt != "really?" {
			t.Fatalf("unexpected prompt %s %s %s", actor, command, prompt)
		}
		prompts++
	}).WithClock(clk.now)

	if g.Confirm("alice", "/remove region X", "really?") {
		t.Fatalf("first call must not confirm")
	}
	if prompts != 1 {
		t.Fatalf("expected prompt")
	}
	clk.t = clk.t.Add(59 * time.Second)
	if !g.Confirm("alice", "/REMOVE region x", "really?") {
		t.Fatalf("repeat within 59s should confirm (case-insensitive)")
	}
	// The confirmed repeat did not restart the window.
	clk.t = clk.t.Add(2 * time.Second)
	if g.Confirm("alice", "/remove region X", "really?") {
		t.Fatalf("61s after the first request must prompt again")
	}
	if prompts != 2 {
		t.Fatalf("expected second prompt, got %d", prompts)
	}
}

func TestConfirm_After61Seconds(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	g := New(DefaultWindow, nil).WithClock(clk.now)
	g.Confirm("alice", "/remove region X", "msg")
	clk.t = clk.t.Add(61 * time.Second)
	if g.Confirm("alice", "/remove region X", "msg") {
		t.Fatalf("expired entry must be treated as absent")
	}
}

func TestConfirm_OtherCommandOverwrites(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	g := New(DefaultWindow, nil).WithClock(clk.now)
	g.Confirm("alice", "/remove a", "msg")
	g.Confirm("alice", "/remove b", "msg")
	if g.Confirm("alice", "/remove a", "msg") {
		t.Fatalf("older pending command should have been replaced")
	}
	if g.Confirm("bob", "/remove a", "msg") {
		t.Fatalf("entries are per actor")
	}
}

func TestPruneAndForget(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	g := New(10*time.Second, nil).WithClock(clk.now)
	g.Confirm("a", "x", "")
	g.Confirm("b", "y", "")
	g.Forget("b")
	clk.t = clk.t.Add(11 * time.Second)
	if n := g.Prune(); n != 1 {
		t.Fatalf("pruned %d", n)
	}
}
