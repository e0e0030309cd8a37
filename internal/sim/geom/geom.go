package geom

import (
	"fmt"
	"strings"
)

// ChunkSize is the edge length of a chunk column in blocks.
const ChunkSize = 16

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func FromArray(a [3]int) Vec3i { return Vec3i{X: a[0], Y: a[1], Z: a[2]} }

func (v Vec3i) String() string { return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z) }

// Location is a block position qualified by its world.
type Location struct {
	World string
	Pos   Vec3i
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.World, l.Pos)
}

func (l Location) Chunk() ChunkKey { return ChunkOf(l.Pos) }

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

// ChunkKey packs two chunk coordinates into one comparable scalar:
// chunkX in the low 32 bits, chunkZ in the high 32 bits.
type ChunkKey int64

func PackChunk(cx, cz int) ChunkKey {
	return ChunkKey(int64(uint64(uint32(int32(cx))) | uint64(uint32(int32(cz)))<<32))
}

func (k ChunkKey) X() int { return int(int32(uint32(uint64(k)))) }
func (k ChunkKey) Z() int { return int(int32(uint32(uint64(k) >> 32))) }

func (k ChunkKey) String() string { return fmt.Sprintf("chunk(%d,%d)", k.X(), k.Z()) }

func ChunkOf(pos Vec3i) ChunkKey {
	return PackChunk(FloorDiv(pos.X, ChunkSize), FloorDiv(pos.Z, ChunkSize))
}

// Facing is the direction a marker's front points to.
type Facing string

const (
	FacingNorth     Facing = "NORTH"
	FacingNorthEast Facing = "NORTH_EAST"
	FacingEast      Facing = "EAST"
	FacingSouthEast Facing = "SOUTH_EAST"
	FacingSouth     Facing = "SOUTH"
	FacingSouthWest Facing = "SOUTH_WEST"
	FacingWest      Facing = "WEST"
	FacingNorthWest Facing = "NORTH_WEST"
	FacingUp        Facing = "UP"
)

var facings = map[Facing]bool{
	FacingNorth: true, FacingNorthEast: true, FacingEast: true, FacingSouthEast: true,
	FacingSouth: true, FacingSouthWest: true, FacingWest: true, FacingNorthWest: true,
	FacingUp: true,
}

// ParseFacing is lenient: unknown or empty input maps to NORTH.
func ParseFacing(s string) Facing {
	f := Facing(strings.ToUpper(strings.TrimSpace(s)))
	if facings[f] {
		return f
	}
	return FacingNorth
}
