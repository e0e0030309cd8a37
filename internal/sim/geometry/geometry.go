package geometry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

type Config struct {
	Worlds []WorldSpec `yaml:"worlds"`
}

type WorldSpec struct {
	Name  string     `yaml:"name"`
	Areas []AreaSpec `yaml:"regions"`
}

// AreaSpec is an axis-aligned cuboid, both corners inclusive.
type AreaSpec struct {
	ID       string   `yaml:"id"`
	Min      [3]int   `yaml:"min"`
	Max      [3]int   `yaml:"max"`
	Priority int      `yaml:"priority"`
	Parent   string   `yaml:"parent,omitempty"`
	Owners   []string `yaml:"owners,omitempty"`
	Members  []string `yaml:"members,omitempty"`
}

type area struct {
	spec    AreaSpec
	min     geom.Vec3i
	max     geom.Vec3i
	owners  map[string]bool
	members map[string]bool
}

func (a *area) contains(p geom.Vec3i) bool {
	return p.X >= a.min.X && p.X <= a.max.X &&
		p.Y >= a.min.Y && p.Y <= a.max.Y &&
		p.Z >= a.min.Z && p.Z <= a.max.Z
}

// Provider answers geometry and ownership questions from a static area list.
// Areas are reported in file order.
type Provider struct {
	worlds map[string][]*area
	byID   map[string]map[string]*area // world -> folded id
}

func Load(path string) (*Provider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("regions.yaml: %w", err)
	}
	p, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("regions.yaml: %w", err)
	}
	return p, nil
}

func New(cfg Config) (*Provider, error) {
	p := &Provider{worlds: map[string][]*area{}, byID: map[string]map[string]*area{}}
	for _, w := range cfg.Worlds {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			return nil, fmt.Errorf("world name must not be empty")
		}
		if p.byID[name] == nil {
			p.byID[name] = map[string]*area{}
		}
		for _, s := range w.Areas {
			id := strings.ToLower(strings.TrimSpace(s.ID))
			if id == "" {
				return nil, fmt.Errorf("world %s has a region without id", name)
			}
			if p.byID[name][id] != nil {
				return nil, fmt.Errorf("world %s duplicate region id: %s", name, s.ID)
			}
			a := &area{spec: s, owners: set(s.Owners), members: set(s.Members)}
			a.min, a.max = corners(geom.FromArray(s.Min), geom.FromArray(s.Max))
			p.worlds[name] = append(p.worlds[name], a)
			p.byID[name][id] = a
		}
	}
	for world, ids := range p.byID {
		for _, a := range ids {
			if a.spec.Parent == "" {
				continue
			}
			if ids[strings.ToLower(a.spec.Parent)] == nil {
				return nil, fmt.Errorf("world %s region %s: unknown parent %s", world, a.spec.ID, a.spec.Parent)
			}
		}
	}
	return p, nil
}

func set(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = true
		}
	}
	return out
}

func corners(a, b geom.Vec3i) (geom.Vec3i, geom.Vec3i) {
	lo, hi := a, b
	if lo.X > hi.X {
		lo.X, hi.X = hi.X, lo.X
	}
	if lo.Y > hi.Y {
		lo.Y, hi.Y = hi.Y, lo.Y
	}
	if lo.Z > hi.Z {
		lo.Z, hi.Z = hi.Z, lo.Z
	}
	return lo, hi
}

// CandidatesAt returns every area containing loc.
func (p *Provider) CandidatesAt(loc geom.Location) []regions.Candidate {
	var out []regions.Candidate
	for _, a := range p.worlds[loc.World] {
		if a.contains(loc.Pos) {
			out = append(out, regions.Candidate{ID: a.spec.ID, Priority: a.spec.Priority, Parent: a.spec.Parent})
		}
	}
	return out
}

// Lookup returns the area's id as declared, for a case-insensitive name.
func (p *Provider) Lookup(world, id string) (string, bool) {
	a := p.byID[world][strings.ToLower(strings.TrimSpace(id))]
	if a == nil {
		return "", false
	}
	return a.spec.ID, true
}

func (p *Provider) IsOwner(world, region, actor string) bool {
	a := p.byID[world][strings.ToLower(region)]
	return a != nil && a.owners[actor]
}

func (p *Provider) IsMember(world, region, actor string) bool {
	a := p.byID[world][strings.ToLower(region)]
	return a != nil && a.members[actor]
}

func (p *Provider) Worlds() []string {
	out := make([]string, 0, len(p.byID))
	for w := range p.byID {
		out = append(out, w)
	}
	return out
}
