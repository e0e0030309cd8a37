package engine

import (
	"strings"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

func chunkKey(cx, cz int) geom.ChunkKey { return geom.PackChunk(cx, cz) }

// liveRegion returns the stored region rec points at, if it still exists in
// the record's world.
func (e *Engine) liveRegion(rec *binding.Record) (*regions.Region, bool) {
	r, ok := e.store.Get(rec.Region.Name)
	if !ok || r.World != rec.Region.World {
		return nil, false
	}
	return r, true
}

// Refresh redraws one marker. A marker whose region is gone loses its
// binding instead.
func (e *Engine) Refresh(rec *binding.Record) bool {
	r, live := e.liveRegion(rec)
	if !live {
		if e.reg.Remove(rec) {
			e.logger.Printf("dropped dangling binding at %s (region %s)", rec.Loc, rec.Region.Name)
		}
		return false
	}
	if e.render != nil {
		e.render.Render(View{Record: rec, Region: r, Lines: e.Lines(rec, r)})
	}
	return true
}

// RefreshRegion redraws every marker of ref.
func (e *Engine) RefreshRegion(ref binding.RegionRef) {
	for _, rec := range e.reg.ForRegion(ref) {
		e.Refresh(rec)
	}
}

// Lines renders the profile templates of rec for region r.
func (e *Engine) Lines(rec *binding.Record, r *regions.Region) []string {
	tmpl := e.cfg.ProfileFor(rec.Profile).State(r.Kind).Lines
	rep := replacer(placeholders(r))
	out := make([]string, len(tmpl))
	for i, line := range tmpl {
		out[i] = rep.Replace(line)
	}
	return out
}

func placeholders(r *regions.Region) map[string]string {
	vars := map[string]string{}
	for k, v := range r.Placeholders() {
		vars["%"+k+"%"] = v
	}
	return vars
}

func replacer(vars map[string]string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	return strings.NewReplacer(pairs...)
}
