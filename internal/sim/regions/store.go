package regions

import (
	"fmt"
	"sort"
	"strings"
)

// VetoResult is the outcome of AddRegion. A vetoed region is not stored.
type VetoResult struct {
	Vetoed bool
	Reason string
}

// AddingHook may veto a region before it is stored. Hooks run in
// registration order and the first veto wins.
type AddingHook func(r *Region) (veto bool, reason string)

// Listener observes committed store changes.
type Listener interface {
	RegionAdded(r *Region)
	RegionRemoved(r *Region)
}

// Store keeps registered regions by case-folded name. Region names are unique
// across worlds.
type Store struct {
	byName    map[string]*Region
	hooks     []AddingHook
	listeners []Listener
}

func NewStore() *Store {
	return &Store{byName: map[string]*Region{}}
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func (s *Store) AddHook(h AddingHook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

func (s *Store) AddListener(l Listener) {
	if l != nil {
		s.listeners = append(s.listeners, l)
	}
}

func (s *Store) Get(name string) (*Region, bool) {
	r, ok := s.byName[key(name)]
	return r, ok
}

func (s *Store) Len() int { return len(s.byName) }

// AddRegion runs the adding hooks, then stores r and notifies listeners.
func (s *Store) AddRegion(r *Region) VetoResult {
	if r == nil || key(r.Name) == "" {
		return VetoResult{Vetoed: true, Reason: "missing region name"}
	}
	if cur, ok := s.byName[key(r.Name)]; ok && cur != r {
		return VetoResult{Vetoed: true, Reason: fmt.Sprintf("region %s already registered", cur.Name)}
	}
	for _, h := range s.hooks {
		if veto, reason := h(r); veto {
			return VetoResult{Vetoed: true, Reason: reason}
		}
	}
	s.byName[key(r.Name)] = r
	for _, l := range s.listeners {
		l.RegionAdded(r)
	}
	return VetoResult{}
}

// Load inserts a previously persisted region without running hooks or
// listeners.
func (s *Store) Load(r *Region) error {
	if r == nil || key(r.Name) == "" {
		return fmt.Errorf("load: missing region name")
	}
	if _, ok := s.byName[key(r.Name)]; ok {
		return fmt.Errorf("load: duplicate region %s", r.Name)
	}
	s.byName[key(r.Name)] = r
	return nil
}

// RemoveRegion deletes r and notifies listeners. Removing a region that is
// not stored (or was replaced) is a no-op.
func (s *Store) RemoveRegion(r *Region) bool {
	if r == nil {
		return false
	}
	k := key(r.Name)
	if s.byName[k] != r {
		return false
	}
	delete(s.byName, k)
	for _, l := range s.listeners {
		l.RegionRemoved(r)
	}
	return true
}

// All returns regions sorted by name.
func (s *Store) All() []*Region {
	out := make([]*Region, 0, len(s.byName))
	for _, r := range s.byName {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

func (s *Store) ByWorld(world string) []*Region {
	var out []*Region
	for _, r := range s.All() {
		if r.World == world {
			out = append(out, r)
		}
	}
	return out
}

// MaxRegionsHook vetoes additions once a world holds its configured maximum.
// Worlds without a positive limit are unlimited.
func MaxRegionsHook(s *Store, limits map[string]int) AddingHook {
	return func(r *Region) (bool, string) {
		max := limits[r.World]
		if max <= 0 {
			return false, ""
		}
		if len(s.ByWorld(r.World)) >= max {
			return true, fmt.Sprintf("world %s already has %d regions", r.World, max)
		}
		return false, ""
	}
}
