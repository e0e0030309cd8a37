package geom

import "testing"

func TestChunkOf_NegativeCoordinatesFloor(t *testing.T) {
	k := ChunkOf(Vec3i{X: -1, Y: 64, Z: 15})
	if k.X() != -1 || k.Z() != 0 {
		t.Fatalf("chunk of (-1,15): got (%d,%d) want (-1,0)", k.X(), k.Z())
	}
	k = ChunkOf(Vec3i{X: -16, Z: -17})
	if k.X() != -1 || k.Z() != -2 {
		t.Fatalf("chunk of (-16,-17): got (%d,%d) want (-1,-2)", k.X(), k.Z())
	}
	k = ChunkOf(Vec3i{X: 16, Z: 31})
	if k.X() != 1 || k.Z() != 1 {
		t.Fatalf("chunk of (16,31): got (%d,%d) want (1,1)", k.X(), k.Z())
	}
}

func TestPackChunk_RoundTripsAndIsDistinct(t *testing.T) {
	coords := [][2]int{{0, 0}, {1, 0}, {0, 1}, {-1, 0}, {0, -1}, {-30000, 29999}, {2147483647, -2147483648}}
	seen := map[ChunkKey]bool{}
	for _, c := range coords {
		k := PackChunk(c[0], c[1])
		if k.X() != c[0] || k.Z() != c[1] {
			t.Fatalf("pack(%d,%d) unpacked to (%d,%d)", c[0], c[1], k.X(), k.Z())
		}
		if seen[k] {
			t.Fatalf("key collision for %v", c)
		}
		seen[k] = true
	}
}

func TestParseFacing(t *testing.T) {
	if ParseFacing("south_west") != FacingSouthWest {
		t.Fatalf("expected SOUTH_WEST")
	}
	if ParseFacing("sideways") != FacingNorth {
		t.Fatalf("unknown facing should default to NORTH")
	}
}
