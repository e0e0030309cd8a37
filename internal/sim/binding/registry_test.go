package binding

import (
	"errors"
	"math/rand"
	"testing"

	"areasigns.ai/internal/sim/geom"
)

func rec(world string, x, y, z int, region string) *Record {
	return &Record{
		Loc:    geom.Location{World: world, Pos: geom.Vec3i{X: x, Y: y, Z: z}},
		Kind:   "OAK_WALL_SIGN",
		Facing: geom.FacingNorth,
		Region: RegionRef{World: world, Name: region},
	}
}

type countingListener struct {
	registered int
	removed    int
}

func (c *countingListener) OnRegister(*Record) { c.registered++ }
func (c *countingListener) OnRemove(*Record)   { c.removed++ }

func TestRegistry_RegisterLookupAndChunkIndex(t *testing.T) {
	r := NewRegistry()
	a := rec("w", 1, 64, 1, "shop1")
	b := rec("w", 15, 64, 15, "shop1")
	c := rec("w", 16, 64, 0, "shop2")
	for _, x := range []*Record{a, b, c} {
		if err := r.Register(x); err != nil {
			t.Fatalf("register %s: %v", x.Loc, err)
		}
	}

	got, ok := r.Lookup(a.Loc)
	if !ok || got != a {
		t.Fatalf("lookup: got %v ok=%v", got, ok)
	}
	if _, ok := r.Lookup(geom.Location{World: "other", Pos: a.Loc.Pos}); ok {
		t.Fatalf("lookup in other world should miss")
	}

	idx := r.ChunkIndexFor("w")
	at := idx.RecordsAt(geom.PackChunk(0, 0))
	if len(at) != 2 || at[0] != a || at[1] != b {
		t.Fatalf("chunk(0,0): got %v", at)
	}
	if at := idx.RecordsAt(geom.PackChunk(1, 0)); len(at) != 1 || at[0] != c {
		t.Fatalf("chunk(1,0): got %v", at)
	}
	if at := idx.RecordsAt(geom.PackChunk(5, 5)); at == nil || len(at) != 0 {
		t.Fatalf("empty chunk should give empty non-nil slice: %v", at)
	}
	if n := len(r.ForRegion(RegionRef{World: "w", Name: "SHOP1"})); n != 2 {
		t.Fatalf("region lookup should be case-insensitive: got %d", n)
	}
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	first := rec("w", 3, 70, -4, "a")
	second := rec("w", 3, 70, -4, "b")
	if err := r.Register(first); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(second)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	got, _ := r.Lookup(first.Loc)
	if got != first {
		t.Fatalf("first registration must be unaffected")
	}
	if len(r.ForRegion(second.Region)) != 0 {
		t.Fatalf("failed registration leaked into region index")
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	l := &countingListener{}
	r.AddListener(l)
	a := rec("w", 0, 0, 0, "a")
	if r.Remove(a) {
		t.Fatalf("removing unregistered record should report false")
	}
	_ = r.Register(a)
	if !r.Remove(a) {
		t.Fatalf("expected removal")
	}
	if r.Remove(a) {
		t.Fatalf("second removal should be a no-op")
	}
	if l.registered != 1 || l.removed != 1 {
		t.Fatalf("listener counts: %+v", l)
	}
	if r.ChunkIndexFor("w").Chunks() != 0 {
		t.Fatalf("empty chunk entry should be dropped")
	}
}

func TestRegistry_StalePointerDoesNotRemoveReplacement(t *testing.T) {
	r := NewRegistry()
	old := rec("w", 5, 5, 5, "a")
	_ = r.Register(old)
	r.Remove(old)
	fresh := rec("w", 5, 5, 5, "b")
	if err := r.Register(fresh); err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.Remove(old) {
		t.Fatalf("stale record removed its replacement")
	}
	if got, _ := r.Lookup(fresh.Loc); got != fresh {
		t.Fatalf("replacement missing")
	}
}

func TestRegistry_RemoveRegionCascades(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(rec("w", 0, 0, 0, "a"))
	_ = r.Register(rec("w", 100, 0, 0, "a"))
	keep := rec("w", 1, 0, 0, "b")
	_ = r.Register(keep)

	removed := r.RemoveRegion(RegionRef{World: "w", Name: "a"})
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(removed))
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 remaining, got %d", r.Count())
	}
	if again := r.RemoveRegion(RegionRef{World: "w", Name: "a"}); len(again) != 0 {
		t.Fatalf("second cascade should be empty")
	}
}

func TestRegistry_ParkAndUnpark(t *testing.T) {
	r := NewRegistry()
	l := &countingListener{}
	_ = r.Register(rec("w", 0, 0, 0, "a"))
	_ = r.Register(rec("w", 20, 0, 0, "b"))
	_ = r.Register(rec("nether", 0, 0, 0, "n"))
	r.AddListener(l)

	if n := r.Park("w"); n != 2 {
		t.Fatalf("parked %d", n)
	}
	if r.Count() != 1 || len(r.ForRegion(RegionRef{World: "w", Name: "a"})) != 0 {
		t.Fatalf("world indices not torn down")
	}
	if l.removed != 0 {
		t.Fatalf("parking must not notify listeners")
	}

	restored, dropped, err := r.Unpark("w", func(rec *Record) bool { return rec.Region.Name != "b" })
	if err != nil || restored != 1 || dropped != 1 {
		t.Fatalf("unpark: restored=%d dropped=%d err=%v", restored, dropped, err)
	}
	if _, ok := r.Lookup(geom.Location{World: "w"}); !ok {
		t.Fatalf("kept record not re-registered")
	}
	if l.registered != 1 || l.removed != 1 {
		t.Fatalf("listeners: registered=%d removed=%d", l.registered, l.removed)
	}
	if r.Parked("w") != 0 {
		t.Fatalf("parked records left behind")
	}
}

func TestRegistry_RemoveRegionDiscardsParked(t *testing.T) {
	r := NewRegistry()
	l := &countingListener{}
	_ = r.Register(rec("w", 0, 0, 0, "a"))
	_ = r.Register(rec("w", 20, 0, 0, "b"))
	r.AddListener(l)
	r.Park("w")

	if got := r.RemoveRegion(RegionRef{World: "w", Name: "A"}); len(got) != 0 {
		t.Fatalf("parked records must not be returned: %d", len(got))
	}
	if l.removed != 1 || r.Parked("w") != 1 {
		t.Fatalf("removed=%d parked=%d", l.removed, r.Parked("w"))
	}
	restored, _, _ := r.Unpark("w", nil)
	if restored != 1 {
		t.Fatalf("restored %d", restored)
	}
	if _, ok := r.Lookup(geom.Location{World: "w"}); ok {
		t.Fatalf("record of the removed region came back")
	}
}

// Index-registry consistency after a random sequence of register/remove.
func TestRegistry_ChunkIndexConsistency(t *testing.T) {
	r := NewRegistry()
	rng := rand.New(rand.NewSource(7))
	live := map[geom.Location]*Record{}
	for i := 0; i < 2000; i++ {
		x, z := rng.Intn(96)-48, rng.Intn(96)-48
		loc := geom.Location{World: "w", Pos: geom.Vec3i{X: x, Y: 64, Z: z}}
		if cur, ok := live[loc]; ok && rng.Intn(2) == 0 {
			r.Remove(cur)
			delete(live, loc)
			continue
		}
		nr := rec("w", x, 64, z, "r")
		err := r.Register(nr)
		if _, exists := live[loc]; exists {
			if !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected duplicate at %s, got %v", loc, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		live[loc] = nr
	}

	want := map[geom.ChunkKey]int{}
	for loc := range live {
		want[geom.ChunkOf(loc.Pos)]++
	}
	idx := r.ChunkIndexFor("w")
	if idx.Chunks() != len(want) {
		t.Fatalf("chunk entries: got %d want %d", idx.Chunks(), len(want))
	}
	for key, n := range want {
		got := idx.RecordsAt(key)
		if len(got) != n {
			t.Fatalf("%s: got %d want %d", key, len(got), n)
		}
		for _, g := range got {
			if geom.ChunkOf(g.Loc.Pos) != key || live[g.Loc] != g {
				t.Fatalf("%s holds foreign record %s", key, g.Loc)
			}
		}
	}
	if r.Count() != len(live) {
		t.Fatalf("count: got %d want %d", r.Count(), len(live))
	}
}
