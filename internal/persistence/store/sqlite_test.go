package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

func TestSQLite_RoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "signs.sqlite")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rent := regions.NewRent("Market", "world")
	rent.Price = 10.5
	if err := rent.SetDuration(regions.Duration{Amount: 2, Unit: regions.UnitWeek}); err != nil {
		t.Fatalf("SetDuration: %v", err)
	}
	rent.SetLandlord("u-1", "alice")
	buy := regions.NewBuy("outpost", "nether")
	buy.Price = 250

	s.RegionAdded(rent)
	s.RegionAdded(buy)
	s.OnRegister(&binding.Record{
		Loc:     geom.Location{World: "world", Pos: geom.Vec3i{X: 5, Y: 64, Z: -3}},
		Kind:    "OAK_WALL_SIGN",
		Facing:  geom.FacingEast,
		Profile: "compact",
		Region:  rent.Ref(),
	})
	gone := &binding.Record{Loc: geom.Location{World: "nether", Pos: geom.Vec3i{X: 1, Y: 70, Z: 1}}, Kind: "OAK_SIGN", Region: buy.Ref()}
	s.OnRegister(gone)
	s.OnRemove(gone)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if st := s.Stats(); st.Failed != 0 || st.Applied != 5 {
		t.Fatalf("stats: %+v", st)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()

	regs, recs, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(regs) != 2 || regs[0].Name != "Market" || regs[1].Name != "outpost" {
		t.Fatalf("regions: %+v", regs)
	}
	m := regs[0]
	if m.Kind != regions.KindRent || m.Price != 10.5 || m.Rent.Duration != (regions.Duration{Amount: 2, Unit: regions.UnitWeek}) {
		t.Fatalf("market: %+v %+v", m, m.Rent)
	}
	if m.Landlord == nil || m.Landlord.ID != "u-1" || m.Landlord.Name != "alice" {
		t.Fatalf("landlord: %+v", m.Landlord)
	}
	if regs[1].Kind != regions.KindBuy || regs[1].Rent != nil || regs[1].Landlord != nil {
		t.Fatalf("outpost: %+v", regs[1])
	}
	if len(recs) != 1 {
		t.Fatalf("signs: %d", len(recs))
	}
	r := recs[0]
	if r.Loc.Pos != (geom.Vec3i{X: 5, Y: 64, Z: -3}) || r.Facing != geom.FacingEast || r.Profile != "compact" || r.Region != rent.Ref() {
		t.Fatalf("sign: %+v", r)
	}
}

func TestSQLite_RegionRemovedAndFilter(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "signs.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	a := regions.NewBuy("a", "world")
	b := regions.NewBuy("b", "world")
	s.RegionAdded(a)
	s.RegionAdded(b)
	for i, r := range []*regions.Region{a, b, b} {
		s.OnRegister(&binding.Record{Loc: geom.Location{World: "world", Pos: geom.Vec3i{X: i}}, Kind: "OAK_SIGN", Region: r.Ref()})
	}
	s.RegionRemoved(a)
	s.DeleteSign(geom.Location{World: "world", Pos: geom.Vec3i{X: 0}})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(filepath.Join(filepath.Dir(s.path), "signs.sqlite"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	regs, err := s.Regions(context.Background())
	if err != nil || len(regs) != 1 || regs[0].Name != "b" {
		t.Fatalf("regions: %v %+v", err, regs)
	}
	signs, err := s.Signs(context.Background(), "B")
	if err != nil || len(signs) != 2 {
		t.Fatalf("signs of b: %v %d", err, len(signs))
	}
}

func TestSQLite_ClosedIsNoop(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "signs.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s.RegionAdded(regions.NewBuy("late", "world"))
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSQLite_OpenFailsOnIncompatibleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signs.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE regions (name_key TEXT PRIMARY KEY, name TEXT, world TEXT, kind TEXT, price REAL, updated_at TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = db.Close()

	s, err := Open(path)
	if err == nil {
		_ = s.Close()
		t.Fatalf("Open should fail when a writer statement cannot be prepared")
	}
}
