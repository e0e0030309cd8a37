package binding

import (
	"errors"
	"fmt"
	"sort"

	"areasigns.ai/internal/sim/geom"
)

// ErrDuplicate is returned by Register when a record already occupies the
// location. With serialized signal delivery it indicates a programming error.
var ErrDuplicate = errors.New("duplicate binding")

type worldIndex struct {
	byPos  map[geom.Vec3i]*Record
	chunks *ChunkIndex
}

// Registry is the single owner of every binding index. It is not safe for
// concurrent use; all calls come from the engine's serial context.
type Registry struct {
	worlds    map[string]*worldIndex
	byRegion  map[RegionRef]map[geom.Location]*Record
	parked    map[string][]*Record
	listeners []Listener
}

func NewRegistry() *Registry {
	return &Registry{
		worlds:   map[string]*worldIndex{},
		byRegion: map[RegionRef]map[geom.Location]*Record{},
		parked:   map[string][]*Record{},
	}
}

func (r *Registry) AddListener(l Listener) {
	if l != nil {
		r.listeners = append(r.listeners, l)
	}
}

func (r *Registry) world(name string) *worldIndex {
	w := r.worlds[name]
	if w == nil {
		w = &worldIndex{byPos: map[geom.Vec3i]*Record{}, chunks: newChunkIndex(name)}
		r.worlds[name] = w
	}
	return w
}

// Lookup returns the record at the exact location, if any.
func (r *Registry) Lookup(loc geom.Location) (*Record, bool) {
	w := r.worlds[loc.World]
	if w == nil {
		return nil, false
	}
	rec, ok := w.byPos[loc.Pos]
	return rec, ok
}

// Register inserts rec into the location, chunk and region indices together.
func (r *Registry) Register(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if rec.Loc.World == "" || rec.Region.Name == "" {
		return fmt.Errorf("record at %s: missing world or region", rec.Loc)
	}
	w := r.world(rec.Loc.World)
	if cur := w.byPos[rec.Loc.Pos]; cur != nil {
		return fmt.Errorf("%w at %s (region %s)", ErrDuplicate, rec.Loc, cur.Region.Name)
	}
	w.byPos[rec.Loc.Pos] = rec
	w.chunks.insert(rec)

	key := rec.Region.Key()
	set := r.byRegion[key]
	if set == nil {
		set = map[geom.Location]*Record{}
		r.byRegion[key] = set
	}
	set[rec.Loc] = rec

	for _, l := range r.listeners {
		l.OnRegister(rec)
	}
	return nil
}

// Remove drops rec from every index. It reports whether anything was removed;
// removing an absent record (or a stale pointer whose location has since been
// re-registered) is a no-op.
func (r *Registry) Remove(rec *Record) bool {
	if rec == nil {
		return false
	}
	w := r.worlds[rec.Loc.World]
	if w == nil || w.byPos[rec.Loc.Pos] != rec {
		return false
	}
	delete(w.byPos, rec.Loc.Pos)
	w.chunks.remove(rec)

	key := rec.Region.Key()
	if set := r.byRegion[key]; set != nil {
		delete(set, rec.Loc)
		if len(set) == 0 {
			delete(r.byRegion, key)
		}
	}

	for _, l := range r.listeners {
		l.OnRemove(rec)
	}
	return true
}

// RemoveAt removes whatever record sits at loc.
func (r *Registry) RemoveAt(loc geom.Location) (*Record, bool) {
	rec, ok := r.Lookup(loc)
	if !ok {
		return nil, false
	}
	return rec, r.Remove(rec)
}

// ForRegion returns the region's records sorted by location.
func (r *Registry) ForRegion(ref RegionRef) []*Record {
	set := r.byRegion[ref.Key()]
	out := make([]*Record, 0, len(set))
	for _, rec := range set {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

// RemoveRegion removes every record bound to ref and returns the ones that
// were indexed. Parked records of ref are discarded too and listeners see
// OnRemove for them, but they are not returned.
func (r *Registry) RemoveRegion(ref RegionRef) []*Record {
	recs := r.ForRegion(ref)
	removed := recs[:0]
	for _, rec := range recs {
		if r.Remove(rec) {
			removed = append(removed, rec)
		}
	}

	key := ref.Key()
	for world, list := range r.parked {
		kept := list[:0]
		for _, rec := range list {
			if rec.Region.Key() == key {
				r.discard(rec)
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			delete(r.parked, world)
		} else {
			r.parked[world] = kept
		}
	}
	return removed
}

func (r *Registry) discard(rec *Record) {
	for _, l := range r.listeners {
		l.OnRemove(rec)
	}
}

// ChunkIndexFor returns the world's chunk index, creating it if absent.
func (r *Registry) ChunkIndexFor(world string) *ChunkIndex {
	return r.world(world).chunks
}

// Park tears down a world's indices without notifying listeners and keeps
// its records aside until Unpark. It returns the number parked.
func (r *Registry) Park(world string) int {
	w := r.worlds[world]
	if w == nil {
		return 0
	}
	recs := make([]*Record, 0, len(w.byPos))
	for _, rec := range w.byPos {
		key := rec.Region.Key()
		if set := r.byRegion[key]; set != nil {
			delete(set, rec.Loc)
			if len(set) == 0 {
				delete(r.byRegion, key)
			}
		}
		recs = append(recs, rec)
	}
	delete(r.worlds, world)
	if len(recs) > 0 {
		sortRecords(recs)
		r.parked[world] = append(r.parked[world], recs...)
	}
	return len(recs)
}

// Parked returns the number of records parked for world.
func (r *Registry) Parked(world string) int { return len(r.parked[world]) }

// Unpark re-registers the world's parked records that keep accepts and
// discards the rest, notifying listeners of each removal.
func (r *Registry) Unpark(world string, keep func(*Record) bool) (restored, dropped int, err error) {
	recs := r.parked[world]
	delete(r.parked, world)
	var errs []error
	for _, rec := range recs {
		if keep != nil && !keep(rec) {
			r.discard(rec)
			dropped++
			continue
		}
		if e := r.Register(rec); e != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rec.Loc, e))
			continue
		}
		restored++
	}
	return restored, dropped, errors.Join(errs...)
}

func (r *Registry) Count() int {
	n := 0
	for _, w := range r.worlds {
		n += len(w.byPos)
	}
	return n
}

// All returns every record sorted by location.
func (r *Registry) All() []*Record {
	out := make([]*Record, 0, r.Count())
	for _, w := range r.worlds {
		for _, rec := range w.byPos {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

func sortRecords(out []*Record) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Loc, out[j].Loc
		if a.World != b.World {
			return a.World < b.World
		}
		if a.Pos.X != b.Pos.X {
			return a.Pos.X < b.Pos.X
		}
		if a.Pos.Y != b.Pos.Y {
			return a.Pos.Y < b.Pos.Y
		}
		return a.Pos.Z < b.Pos.Z
	})
}
