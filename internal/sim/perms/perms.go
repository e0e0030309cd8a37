package perms

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Groups map[string][]string  `yaml:"groups"`
	Actors map[string]ActorSpec `yaml:"actors"`
	// Default applies to every actor, including unknown ones.
	Default []string `yaml:"default"`
}

type ActorSpec struct {
	Groups []string `yaml:"groups,omitempty"`
	Nodes  []string `yaml:"nodes,omitempty"`
}

// Table is a static permission table. Nodes may end in ".*" to grant a whole
// subtree; a bare "*" grants everything.
type Table struct {
	actors map[string]map[string]bool
	deflt  map[string]bool
}

func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("permissions.yaml: %w", err)
	}
	t, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("permissions.yaml: %w", err)
	}
	return t, nil
}

func New(cfg Config) (*Table, error) {
	t := &Table{actors: map[string]map[string]bool{}, deflt: nodeSet(cfg.Default)}
	for actor, spec := range cfg.Actors {
		nodes := nodeSet(spec.Nodes)
		for _, g := range spec.Groups {
			gn, ok := cfg.Groups[g]
			if !ok {
				return nil, fmt.Errorf("actor %s: unknown group %s", actor, g)
			}
			for n := range nodeSet(gn) {
				nodes[n] = true
			}
		}
		t.actors[actor] = nodes
	}
	return t, nil
}

func nodeSet(nodes []string) map[string]bool {
	out := map[string]bool{}
	for _, n := range nodes {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out[n] = true
		}
	}
	return out
}

func (t *Table) Grant(actor string, nodes ...string) {
	set := t.actors[actor]
	if set == nil {
		set = map[string]bool{}
		t.actors[actor] = set
	}
	for n := range nodeSet(nodes) {
		set[n] = true
	}
}

func (t *Table) Has(actor, node string) bool {
	node = strings.ToLower(strings.TrimSpace(node))
	if node == "" {
		return false
	}
	return matches(t.actors[actor], node) || matches(t.deflt, node)
}

func matches(set map[string]bool, node string) bool {
	if len(set) == 0 {
		return false
	}
	if set["*"] || set[node] {
		return true
	}
	for i := len(node) - 1; i > 0; i-- {
		if node[i] == '.' && set[node[:i]+".*"] {
			return true
		}
	}
	return false
}
