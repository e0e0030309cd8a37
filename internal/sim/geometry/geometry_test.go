package geometry

import (
	"testing"

	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

func TestLoad_ConfigsRegionsYAML(t *testing.T) {
	p, err := Load("../../../configs/regions.yaml")
	if err != nil {
		t.Fatalf("load regions.yaml: %v", err)
	}
	if len(p.Worlds()) == 0 {
		t.Fatalf("expected at least one world")
	}
}

func TestCandidatesAt_FileOrderAndResolve(t *testing.T) {
	p, err := New(Config{Worlds: []WorldSpec{{
		Name: "w",
		Areas: []AreaSpec{
			{ID: "market", Min: [3]int{0, 0, 0}, Max: [3]int{99, 255, 99}, Priority: 0},
			{ID: "stall1", Min: [3]int{10, 0, 10}, Max: [3]int{0, 255, 0}, Priority: 0, Parent: "market", Owners: []string{"alice"}},
		},
	}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c := p.CandidatesAt(geom.Location{World: "w", Pos: geom.Vec3i{X: 5, Y: 64, Z: 5}})
	if len(c) != 2 || c[0].ID != "market" || c[1].ID != "stall1" {
		t.Fatalf("candidates: %+v", c)
	}
	best, err := regions.Resolve(c)
	if err != nil || best.ID != "stall1" {
		t.Fatalf("resolve: %+v %v", best, err)
	}
	if c := p.CandidatesAt(geom.Location{World: "w", Pos: geom.Vec3i{X: 50, Y: 64, Z: 50}}); len(c) != 1 {
		t.Fatalf("outside stall: %+v", c)
	}
	if !p.IsOwner("w", "STALL1", "alice") || p.IsMember("w", "stall1", "alice") {
		t.Fatalf("ownership lookup wrong")
	}
	if id, ok := p.Lookup("w", "Market"); !ok || id != "market" {
		t.Fatalf("lookup: %q %v", id, ok)
	}
}

func TestNew_RejectsUnknownParentAndDuplicates(t *testing.T) {
	_, err := New(Config{Worlds: []WorldSpec{{Name: "w", Areas: []AreaSpec{{ID: "a", Parent: "ghost"}}}}})
	if err == nil {
		t.Fatalf("expected unknown parent error")
	}
	_, err = New(Config{Worlds: []WorldSpec{{Name: "w", Areas: []AreaSpec{{ID: "a"}, {ID: "A"}}}}})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
