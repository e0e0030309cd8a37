package binding

import (
	"strings"

	"areasigns.ai/internal/sim/geom"
)

// RegionRef identifies the region a record belongs to.
type RegionRef struct {
	World string
	Name  string
}

// Key is the case-folded form used for index lookups.
func (r RegionRef) Key() RegionRef {
	return RegionRef{World: r.World, Name: strings.ToLower(r.Name)}
}

// Record binds one marker at an exact location to one region. Loc is the
// identity and never changes after registration.
type Record struct {
	Loc     geom.Location
	Kind    string // marker block type, e.g. OAK_WALL_SIGN
	Facing  geom.Facing
	Profile string // optional; empty selects the region's default profile
	Region  RegionRef
}

func (r *Record) Chunk() geom.ChunkKey { return r.Loc.Chunk() }

// Listener observes registry mutations. Implementations must not call back
// into Register/Remove.
type Listener interface {
	OnRegister(rec *Record)
	OnRemove(rec *Record)
}
