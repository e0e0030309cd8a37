package engine

import (
	"errors"
	"strconv"
	"strings"

	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("bad command usage")
	ErrNoPermission   = errors.New("no permission")
	ErrUnconfirmed    = errors.New("awaiting confirmation")
)

// onActorLeft drops a pending confirmation so a reconnect starts fresh.
func (e *Engine) onActorLeft(sig Signal) Result {
	s, ok := sig.(ActorLeft)
	if !ok {
		return Result{}
	}
	e.guard.Forget(s.Actor)
	return Result{}
}

func (e *Engine) onCommand(sig Signal) Result {
	s, ok := sig.(Command)
	if !ok {
		return Result{}
	}
	return Result{Err: e.exec(s.Actor, s.Line)}
}

func (e *Engine) exec(actor, line string) error {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ErrUsage
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "info":
		return e.cmdInfo(actor, args)
	case "delete", "del":
		return e.cmdDelete(actor, args)
	case "delsign":
		return e.cmdDelSign(actor, args)
	}
	e.Notify(actor, "cmd-unknown", fields[0])
	return ErrUnknownCommand
}

func (e *Engine) cmdInfo(actor string, args []string) error {
	if !e.has(actor, e.cfg.Permissions.Info) {
		e.Notify(actor, "info-noPermission")
		return ErrNoPermission
	}
	if len(args) != 1 {
		e.Notify(actor, "cmd-usage", "info <region>")
		return ErrUsage
	}
	r, ok := e.store.Get(args[0])
	if !ok {
		e.Notify(actor, "cmd-noRegion", args[0])
		return ErrUsage
	}
	duration := ""
	if r.Rent != nil {
		duration = r.Rent.Duration.String()
	}
	landlord := ""
	if r.Landlord != nil {
		landlord = r.Landlord.Name
	}
	e.Notify(actor, "info-region",
		r.Name, strings.ToLower(string(r.Kind)), r.World, regions.FormatPrice(r.Price),
		duration, landlord, len(e.reg.ForRegion(r.Ref())))
	return nil
}

// cmdDelete removes regions together with their markers. Deleting more than
// one region asks for the command to be repeated.
func (e *Engine) cmdDelete(actor string, args []string) error {
	if !e.has(actor, e.cfg.Permissions.Delete) {
		e.Notify(actor, "destroy-noPermission")
		return ErrNoPermission
	}
	if len(args) == 0 {
		e.Notify(actor, "cmd-usage", "delete <region...>")
		return ErrUsage
	}
	var targets []*regions.Region
	seen := map[*regions.Region]bool{}
	for _, name := range args {
		r, ok := e.store.Get(name)
		if !ok {
			e.Notify(actor, "cmd-noRegion", name)
			return ErrUsage
		}
		if !seen[r] {
			seen[r] = true
			targets = append(targets, r)
		}
	}
	if len(targets) > 1 || e.cfg.ConfirmDeleteAlways {
		command := "/delete " + strings.Join(args, " ")
		if !e.guard.Confirm(actor, command, "destroy-confirm") {
			return ErrUnconfirmed
		}
	}
	names := make([]string, 0, len(targets))
	for _, r := range targets {
		if e.store.RemoveRegion(r) {
			names = append(names, r.Name)
		}
	}
	e.Notify(actor, "destroy-success", strings.Join(names, ", "))
	return nil
}

func (e *Engine) cmdDelSign(actor string, args []string) error {
	if !e.has(actor, e.cfg.Permissions.DelSign) {
		e.Notify(actor, "delsign-noPermission", "")
		return ErrNoPermission
	}
	if len(args) != 4 {
		e.Notify(actor, "cmd-usage", "delsign <world> <x> <y> <z>")
		return ErrUsage
	}
	var pos [3]int
	for i := range pos {
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			e.Notify(actor, "cmd-usage", "delsign <world> <x> <y> <z>")
			return ErrUsage
		}
		pos[i] = n
	}
	rec, ok := e.reg.RemoveAt(geom.Location{World: args[0], Pos: geom.FromArray(pos)})
	if !ok {
		e.Notify(actor, "delsign-noSign")
		return nil
	}
	e.Notify(actor, "delsign-success", rec.Region.Name)
	return nil
}
