package confirm

import (
	"strings"
	"time"
)

const DefaultWindow = 60 * time.Second

// Prompter delivers the confirmation prompt to the actor.
type Prompter func(actor, command, prompt string)

type entry struct {
	command string
	at      time.Time
}

// Guard requires a destructive command to be issued twice within Window.
// One pending entry is kept per actor; a new request replaces the old one.
// Not safe for concurrent use.
type Guard struct {
	Window time.Duration
	now    func() time.Time
	prompt Prompter
	last   map[string]entry
}

func New(window time.Duration, prompt Prompter) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{Window: window, now: time.Now, prompt: prompt, last: map[string]entry{}}
}

// WithClock replaces the time source.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Confirm reports whether command was already requested by actor within the
// window. The stored entry is not consumed, and a repeat does not extend the
// window. Otherwise the actor is prompted and the entry is (re)started.
func (g *Guard) Confirm(actor, command, prompt string) bool {
	now := g.now()
	if e, ok := g.last[actor]; ok && strings.EqualFold(e.command, command) && now.Sub(e.at) < g.Window {
		return true
	}
	if g.prompt != nil {
		g.prompt(actor, command, prompt)
	}
	g.last[actor] = entry{command: command, at: now}
	return false
}

// Forget drops the actor's pending entry.
func (g *Guard) Forget(actor string) {
	delete(g.last, actor)
}

// Prune drops expired entries and returns how many were removed.
func (g *Guard) Prune() int {
	now := g.now()
	n := 0
	for actor, e := range g.last {
		if now.Sub(e.at) >= g.Window {
			delete(g.last, actor)
			n++
		}
	}
	return n
}
