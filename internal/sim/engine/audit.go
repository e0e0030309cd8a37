package engine

import (
	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/regions"
)

func (e *Engine) auditEvent(action, world string, pos [3]int, region, reason string, details map[string]any) {
	if e.audit == nil || e.restoring {
		return
	}
	if err := e.audit.WriteAudit(AuditEntry{
		Time:    e.now().UTC(),
		Actor:   e.actor,
		Action:  action,
		World:   world,
		Pos:     pos,
		Region:  region,
		Reason:  reason,
		Details: details,
	}); err != nil {
		e.logger.Printf("audit %s: %v", action, err)
	}
}

type bindingHooks struct{ e *Engine }

func (h bindingHooks) OnRegister(rec *binding.Record) {
	details := map[string]any{"kind": rec.Kind, "facing": string(rec.Facing)}
	if rec.Profile != "" {
		details["profile"] = rec.Profile
	}
	h.e.auditEvent("BIND", rec.Loc.World, rec.Loc.Pos.ToArray(), rec.Region.Name, "", details)
}

func (h bindingHooks) OnRemove(rec *binding.Record) {
	h.e.auditEvent("UNBIND", rec.Loc.World, rec.Loc.Pos.ToArray(), rec.Region.Name, "", nil)
}

type regionHooks struct{ e *Engine }

func (h regionHooks) RegionAdded(r *regions.Region) {
	details := map[string]any{"kind": string(r.Kind), "price": r.Price}
	if r.Rent != nil {
		details["duration"] = r.Rent.Duration.String()
	}
	if r.Landlord != nil {
		details["landlord"] = r.Landlord.ID
	}
	h.e.auditEvent("REGION_ADD", r.World, [3]int{}, r.Name, "", details)
}

// RegionRemoved takes the region's markers with it.
func (h regionHooks) RegionRemoved(r *regions.Region) {
	h.e.auditEvent("REGION_REMOVE", r.World, [3]int{}, r.Name, "", nil)
	for _, rec := range h.e.reg.RemoveRegion(r.Ref()) {
		if h.e.render != nil {
			h.e.render.Clear(rec.Loc)
		}
	}
}
