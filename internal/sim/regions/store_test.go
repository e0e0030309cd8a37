package regions

import (
	"regexp"
	"testing"
)

type recordingListener struct {
	added, removed []string
}

func (l *recordingListener) RegionAdded(r *Region)   { l.added = append(l.added, r.Name) }
func (l *recordingListener) RegionRemoved(r *Region) { l.removed = append(l.removed, r.Name) }

func TestStore_AddRemoveAndListeners(t *testing.T) {
	s := NewStore()
	l := &recordingListener{}
	s.AddListener(l)

	r := NewRent("Shop1", "w")
	if res := s.AddRegion(r); res.Vetoed {
		t.Fatalf("unexpected veto: %s", res.Reason)
	}
	if got, ok := s.Get("SHOP1"); !ok || got != r {
		t.Fatalf("lookup should be case-insensitive")
	}
	if res := s.AddRegion(NewBuy("shop1", "w")); !res.Vetoed {
		t.Fatalf("duplicate name must be vetoed")
	}
	if !s.RemoveRegion(r) {
		t.Fatalf("expected removal")
	}
	if s.RemoveRegion(r) {
		t.Fatalf("second removal should be a no-op")
	}
	if len(l.added) != 1 || len(l.removed) != 1 {
		t.Fatalf("listener calls: %+v", l)
	}
}

func TestStore_MaxRegionsHookVetoes(t *testing.T) {
	s := NewStore()
	s.AddHook(MaxRegionsHook(s, map[string]int{"w": 1}))
	if res := s.AddRegion(NewBuy("a", "w")); res.Vetoed {
		t.Fatalf("first add vetoed: %s", res.Reason)
	}
	res := s.AddRegion(NewBuy("b", "w"))
	if !res.Vetoed || res.Reason == "" {
		t.Fatalf("expected veto with reason, got %+v", res)
	}
	if _, ok := s.Get("b"); ok {
		t.Fatalf("vetoed region must not be stored")
	}
	if res := s.AddRegion(NewBuy("c", "other")); res.Vetoed {
		t.Fatalf("unlimited world vetoed")
	}
}

type permSet map[string]bool

func (p permSet) Has(actor, node string) bool { return p[actor+"|"+node] }

type owners struct{ owner, member map[string]bool }

func (o owners) IsOwner(world, region, actor string) bool  { return o.owner[region+"|"+actor] }
func (o owners) IsMember(world, region, actor string) bool { return o.member[region+"|"+actor] }

func TestGate_CheckEligibility(t *testing.T) {
	s := NewStore()
	_ = s.Load(NewRent("taken", "w"))
	perms := permSet{
		"admin|signs.createrent":        true,
		"tenant|signs.createrent.owner": true,
	}
	own := owners{owner: map[string]bool{"mine|tenant": true}, member: map[string]bool{}}
	nodes := map[Kind]CreateNodes{KindRent: {Create: "signs.createrent", Member: "signs.createrent.member", Owner: "signs.createrent.owner"}}
	g := NewGate(s, perms, own, nodes, []*regexp.Regexp{regexp.MustCompile(`^__global__$`)})

	checks := []struct {
		actor, region, world string
		want                 AddResult
	}{
		{"admin", "taken", "w", AddAlreadySameWorld},
		{"admin", "TAKEN", "nether", AddAlreadyOtherWorld},
		{"admin", "__global__", "w", AddBlacklisted},
		{"admin", "fresh", "w", AddOK},
		{"tenant", "mine", "w", AddOK},
		{"tenant", "fresh", "w", AddNoPermission},
		{"nobody", "fresh", "w", AddNoPermission},
	}
	for _, c := range checks {
		if got := g.CheckEligibility(c.actor, c.region, c.world, KindRent); got != c.want {
			t.Fatalf("%s/%s/%s: got %s want %s", c.actor, c.region, c.world, got, c.want)
		}
	}
}
