package engine

import (
	"time"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

// Signal is one host event delivered to the engine.
type Signal interface{ signalName() string }

type MarkerEdited struct {
	Actor     string
	ActorName string
	Loc       geom.Location
	Lines     []string
	Kind      string
	Facing    geom.Facing
}

// MarkerBroken is a direct break. Actor is empty for world edits such as
// explosions.
type MarkerBroken struct {
	Actor string
	Loc   geom.Location
}

// MarkerUnsupported fires when the block a marker hangs on disappears.
type MarkerUnsupported struct {
	Loc geom.Location
}

type MarkerClicked struct {
	Actor    string
	Loc      geom.Location
	Right    bool
	Sneaking bool
}

type ChunkLoaded struct {
	World string
	CX    int
	CZ    int
}

type WorldLoaded struct {
	World string
}

type WorldUnloaded struct {
	World string
}

// Command is an administrative command line, with or without leading slash.
type Command struct {
	Actor string
	Line  string
}

// ActorLeft reports that an actor's last session closed.
type ActorLeft struct {
	Actor string
}

func (MarkerEdited) signalName() string      { return "MARKER_EDITED" }
func (MarkerBroken) signalName() string      { return "MARKER_BROKEN" }
func (MarkerUnsupported) signalName() string { return "MARKER_UNSUPPORTED" }
func (MarkerClicked) signalName() string     { return "MARKER_CLICKED" }
func (ChunkLoaded) signalName() string       { return "CHUNK_LOADED" }
func (WorldLoaded) signalName() string       { return "WORLD_LOADED" }
func (WorldUnloaded) signalName() string     { return "WORLD_UNLOADED" }
func (Command) signalName() string           { return "COMMAND" }
func (ActorLeft) signalName() string         { return "ACTOR_LEFT" }

// SignalName returns the wire name of sig.
func SignalName(sig Signal) string {
	if sig == nil {
		return ""
	}
	return sig.signalName()
}

func actorOf(sig Signal) string {
	switch s := sig.(type) {
	case MarkerEdited:
		return s.Actor
	case MarkerBroken:
		return s.Actor
	case MarkerClicked:
		return s.Actor
	case Command:
		return s.Actor
	case ActorLeft:
		return s.Actor
	}
	return ""
}

// ClickType selects the command list of a marker profile.
type ClickType string

const (
	ClickLeft       ClickType = "left"
	ClickRight      ClickType = "right"
	ClickShiftLeft  ClickType = "shift_left"
	ClickShiftRight ClickType = "shift_right"
)

func ClickTypeOf(right, sneaking bool) ClickType {
	switch {
	case right && sneaking:
		return ClickShiftRight
	case right:
		return ClickRight
	case sneaking:
		return ClickShiftLeft
	default:
		return ClickLeft
	}
}

// Result tells the host what to do with the originating event.
type Result struct {
	Cancelled bool
	// Stage names the stage that cancelled the signal.
	Stage string
	Err   error
}

// Stage is one step of the signal pipeline. Returning a cancelled result
// stops later stages from seeing the signal.
type Stage struct {
	Name   string
	Handle func(sig Signal) Result
}

// View is what a renderer needs to draw one marker.
type View struct {
	Record *binding.Record
	Region *regions.Region
	Lines  []string
}

type Renderer interface {
	Render(v View)
	// Clear empties the block at loc without dropping an item.
	Clear(loc geom.Location)
}

type Messenger interface {
	Notify(actor, key string, args ...any)
}

// Geometry answers both region lookups and membership questions.
type Geometry interface {
	regions.Ownership
	CandidatesAt(loc geom.Location) []regions.Candidate
	Lookup(world, id string) (string, bool)
}

type Permissions interface {
	Has(actor, node string) bool
}

type AuditEntry struct {
	Time    time.Time      `json:"time"`
	Actor   string         `json:"actor,omitempty"`
	Action  string         `json:"action"` // e.g. "BIND"
	World   string         `json:"world"`
	Pos     [3]int         `json:"pos"`
	Region  string         `json:"region"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type AuditLogger interface {
	WriteAudit(v AuditEntry) error
}

// Envelope carries a signal into Run. Resp, when set, must be buffered.
type Envelope struct {
	Signal Signal
	Resp   chan Result
}
