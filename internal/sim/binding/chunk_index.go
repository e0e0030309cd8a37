package binding

import (
	"sort"

	"areasigns.ai/internal/sim/geom"
)

// ChunkIndex caches the records of one world by chunk. It is owned by a
// Registry; membership is always derivable from Record.Loc.
type ChunkIndex struct {
	world  string
	chunks map[geom.ChunkKey]map[geom.Vec3i]*Record
}

func newChunkIndex(world string) *ChunkIndex {
	return &ChunkIndex{world: world, chunks: map[geom.ChunkKey]map[geom.Vec3i]*Record{}}
}

func (c *ChunkIndex) World() string { return c.world }

// RecordsAt returns the records in the chunk sorted by position. The slice is
// a copy, so callers may remove records while iterating it. Never nil.
func (c *ChunkIndex) RecordsAt(key geom.ChunkKey) []*Record {
	set := c.chunks[key]
	out := make([]*Record, 0, len(set))
	for _, r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Loc.Pos, out[j].Loc.Pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// Chunks returns the number of non-empty chunk entries.
func (c *ChunkIndex) Chunks() int { return len(c.chunks) }

func (c *ChunkIndex) insert(rec *Record) {
	key := rec.Chunk()
	set := c.chunks[key]
	if set == nil {
		set = map[geom.Vec3i]*Record{}
		c.chunks[key] = set
	}
	set[rec.Loc.Pos] = rec
}

func (c *ChunkIndex) remove(rec *Record) {
	key := rec.Chunk()
	set := c.chunks[key]
	if set == nil {
		return
	}
	if set[rec.Loc.Pos] != rec {
		return
	}
	delete(set, rec.Loc.Pos)
	if len(set) == 0 {
		delete(c.chunks, key)
	}
}
