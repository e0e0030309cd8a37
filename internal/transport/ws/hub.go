package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"areasigns.ai/internal/protocol"
	"areasigns.ai/internal/sim/engine"
	"areasigns.ai/internal/sim/geom"
)

// Formatter renders a message key with its arguments.
type Formatter func(key string, args ...any) string

// Hub fans engine output out to connected sessions. Notifications go to the
// actor's sessions; renders go to everyone. Queues are bounded and a full
// queue drops the message.
type Hub struct {
	format Formatter

	mu       sync.Mutex
	sessions map[string]map[string]chan []byte // actor -> session id -> out

	dropped atomic.Uint64
}

func NewHub(format Formatter) *Hub {
	if format == nil {
		format = func(key string, args ...any) string { return key }
	}
	return &Hub{format: format, sessions: map[string]map[string]chan []byte{}}
}

func (h *Hub) Register(actor, session string, out chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.sessions[actor]
	if m == nil {
		m = map[string]chan []byte{}
		h.sessions[actor] = m
	}
	m[session] = out
}

// Unregister reports whether session was the actor's last one.
func (h *Hub) Unregister(actor, session string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.sessions[actor]
	if m == nil {
		return false
	}
	delete(m, session)
	if len(m) == 0 {
		delete(h.sessions, actor)
		return true
	}
	return false
}

// Sessions returns the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.sessions {
		n += len(m)
	}
	return n
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) send(actor string, b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, out := range h.sessions[actor] {
		h.offer(out, b)
	}
}

func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.sessions {
		for _, out := range m {
			h.offer(out, b)
		}
	}
}

func (h *Hub) offer(out chan []byte, b []byte) {
	select {
	case out <- b:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hub) Notify(actor, key string, args ...any) {
	msg := protocol.NotifyMsg{
		Type:            protocol.TypeNotify,
		ProtocolVersion: protocol.Version,
		Key:             key,
		Text:            h.format(key, args...),
	}
	for _, a := range args {
		msg.Args = append(msg.Args, fmt.Sprint(a))
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.send(actor, b)
}

func (h *Hub) Render(v engine.View) {
	rec := v.Record
	msg := protocol.RenderMsg{
		Type:            protocol.TypeRender,
		ProtocolVersion: protocol.Version,
		World:           rec.Loc.World,
		Pos:             rec.Loc.Pos.ToArray(),
		Kind:            rec.Kind,
		Facing:          string(rec.Facing),
		Lines:           v.Lines,
	}
	if v.Region != nil {
		msg.Region = v.Region.Name
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(b)
}

func (h *Hub) Clear(loc geom.Location) {
	b, err := json.Marshal(protocol.RenderMsg{
		Type:            protocol.TypeRender,
		ProtocolVersion: protocol.Version,
		World:           loc.World,
		Pos:             loc.Pos.ToArray(),
		Clear:           true,
	})
	if err != nil {
		return
	}
	h.broadcast(b)
}
