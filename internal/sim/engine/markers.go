package engine

import (
	"errors"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/cascade"
)

func (e *Engine) onEdited(sig Signal) Result {
	s, ok := sig.(MarkerEdited)
	if !ok {
		return Result{}
	}
	out := e.cascade.Run(cascade.Edit{
		Actor:     s.Actor,
		ActorName: s.ActorName,
		Loc:       s.Loc,
		Lines:     s.Lines,
		Kind:      s.Kind,
		Facing:    s.Facing,
	})
	if !out.Handled {
		return Result{}
	}
	if out.Err != nil {
		var ce *cascade.Error
		if errors.As(out.Err, &ce) && ce.Code == cascade.CodeVetoed {
			reason := ""
			if len(ce.Args) > 0 {
				reason, _ = ce.Args[0].(string)
			}
			e.auditEvent("VETO", s.Loc.World, s.Loc.Pos.ToArray(), "", reason, nil)
		}
		return Result{Err: out.Err}
	}
	return Result{}
}

func (e *Engine) onBroken(sig Signal) Result {
	s, ok := sig.(MarkerBroken)
	if !ok {
		return Result{}
	}
	rec, ok := e.reg.Lookup(s.Loc)
	if !ok {
		return Result{}
	}
	if s.Actor == "" {
		e.Defer(func() { e.refreshIfCurrent(rec) })
		return Result{Cancelled: true}
	}
	if !e.has(s.Actor, e.cfg.Permissions.DelSign) {
		e.Notify(s.Actor, "delsign-noPermission", rec.Region.Name)
		return Result{Cancelled: true}
	}
	e.reg.Remove(rec)
	e.Notify(s.Actor, "delsign-success", rec.Region.Name)
	return Result{}
}

func (e *Engine) onUnsupported(sig Signal) Result {
	s, ok := sig.(MarkerUnsupported)
	if !ok {
		return Result{}
	}
	if _, ok := e.reg.Lookup(s.Loc); !ok {
		return Result{}
	}
	if e.render != nil {
		e.render.Clear(s.Loc)
	}
	return Result{Cancelled: true}
}

func (e *Engine) onClicked(sig Signal) Result {
	s, ok := sig.(MarkerClicked)
	if !ok {
		return Result{}
	}
	rec, ok := e.reg.Lookup(s.Loc)
	if !ok {
		return Result{}
	}
	r, live := e.liveRegion(rec)
	if !live {
		e.reg.Remove(rec)
		return Result{}
	}
	state := e.cfg.ProfileFor(rec.Profile).State(r.Kind)
	cmds := state.Commands[string(ClickTypeOf(s.Right, s.Sneaking))]
	if len(cmds) == 0 {
		return Result{}
	}
	vars := placeholders(r)
	vars["%clicker%"] = s.Actor
	rep := replacer(vars)
	for _, c := range cmds {
		e.exec(s.Actor, rep.Replace(c))
	}
	return Result{Cancelled: true}
}

func (e *Engine) onChunkLoaded(sig Signal) Result {
	s, ok := sig.(ChunkLoaded)
	if !ok {
		return Result{}
	}
	idx := e.reg.ChunkIndexFor(s.World)
	if idx == nil {
		return Result{}
	}
	for _, rec := range idx.RecordsAt(chunkKey(s.CX, s.CZ)) {
		e.Refresh(rec)
	}
	return Result{}
}

func (e *Engine) onWorld(sig Signal) Result {
	switch s := sig.(type) {
	case WorldUnloaded:
		if n := e.reg.Park(s.World); n > 0 {
			e.logger.Printf("world %s unloaded: parked %d bindings", s.World, n)
		}
	case WorldLoaded:
		e.restoring = true
		defer func() { e.restoring = false }()
		_, dropped, err := e.reg.Unpark(s.World, func(rec *binding.Record) bool {
			_, live := e.liveRegion(rec)
			return live
		})
		if dropped > 0 {
			e.logger.Printf("world %s loaded: dropped %d dangling bindings", s.World, dropped)
		}
		if err != nil {
			e.logger.Printf("world %s: re-register: %v", s.World, err)
		}
	}
	return Result{}
}

func (e *Engine) refreshIfCurrent(rec *binding.Record) {
	if cur, ok := e.reg.Lookup(rec.Loc); ok && cur == rec {
		e.Refresh(rec)
	}
}
