package cascade

import (
	"errors"
	"strings"

	"areasigns.ai/internal/sim/binding"
	"areasigns.ai/internal/sim/geom"
	"areasigns.ai/internal/sim/regions"
)

type Tag string

const (
	TagRent Tag = "rent"
	TagBuy  Tag = "buy"
	TagAdd  Tag = "add"
)

type Permissions interface {
	Has(actor, node string) bool
}

type Geometry interface {
	CandidatesAt(loc geom.Location) []regions.Candidate
	Lookup(world, id string) (string, bool)
}

type Gate interface {
	CheckEligibility(actor, region, world string, kind regions.Kind) regions.AddResult
}

// Persistence stores regions; AddRegion may veto.
type Persistence interface {
	Get(name string) (*regions.Region, bool)
	AddRegion(r *regions.Region) regions.VetoResult
	RemoveRegion(r *regions.Region) bool
}

type Registry interface {
	Register(rec *binding.Record) error
	Remove(rec *binding.Record) bool
}

// Scheduler runs a task after the current signal has been fully handled.
type Scheduler interface {
	Defer(task func())
}

type Messenger interface {
	Notify(actor, key string, args ...any)
}

type Config struct {
	Tags    map[Tag]string
	Nodes   map[regions.Kind]regions.CreateNodes
	AddSign string
}

// Deps are the collaborators a Cascade needs. Refresh re-renders every
// marker of a region; the cascade only ever schedules it.
type Deps struct {
	Perms    Permissions
	Geometry Geometry
	Owners   regions.Ownership
	Gate     Gate
	Store    Persistence
	Registry Registry
	Sched    Scheduler
	Msg      Messenger
	Refresh  func(ref binding.RegionRef)
	Ready    func() bool
}

// Edit is a marker-edited signal.
type Edit struct {
	Actor     string
	ActorName string
	Loc       geom.Location
	Lines     []string
	Kind      string
	Facing    geom.Facing
}

func (e Edit) line(i int) string {
	if i < len(e.Lines) {
		return strings.TrimSpace(e.Lines[i])
	}
	return ""
}

// Outcome reports what Run did. Handled is false when the marker carries
// none of the configured tags.
type Outcome struct {
	Handled bool
	Tag     Tag
	Region  *regions.Region
	Record  *binding.Record
	Err     error
}

// Cascade turns marker edits into regions and bindings.
type Cascade struct {
	cfg Config
	d   Deps
}

func New(cfg Config, d Deps) *Cascade {
	return &Cascade{cfg: cfg, d: d}
}

// Match returns the flow selected by the first line.
func (c *Cascade) Match(first string) (Tag, bool) {
	for _, t := range []Tag{TagRent, TagBuy, TagAdd} {
		tag := c.cfg.Tags[t]
		if tag != "" && strings.Contains(first, tag) {
			return t, true
		}
	}
	return "", false
}

// Run executes the cascade for e. Every failure is reported to the actor and
// leaves no region or binding behind.
func (c *Cascade) Run(e Edit) Outcome {
	first := ""
	if len(e.Lines) > 0 {
		first = e.Lines[0]
	}
	tag, ok := c.Match(first)
	if !ok {
		return Outcome{}
	}
	out := Outcome{Handled: true, Tag: tag}
	if c.d.Ready != nil && !c.d.Ready() {
		out.Err = c.abort(e.Actor, fail(CodeNotReady, "", "general-notReady"))
		return out
	}

	var err *Error
	switch tag {
	case TagRent:
		out.Region, out.Record, err = c.create(e, regions.KindRent)
	case TagBuy:
		out.Region, out.Record, err = c.create(e, regions.KindBuy)
	case TagAdd:
		out.Region, out.Record, err = c.add(e)
	}
	if err != nil {
		out.Region, out.Record = nil, nil
		out.Err = c.abort(e.Actor, err)
	}
	return out
}

func (c *Cascade) abort(actor string, err *Error) error {
	if c.d.Msg != nil && err.Key != "" {
		c.d.Msg.Notify(actor, err.Key, err.Args...)
	}
	return err
}

func (c *Cascade) notify(actor, key string, args ...any) {
	if c.d.Msg != nil {
		c.d.Msg.Notify(actor, key, args...)
	}
}

func (c *Cascade) create(e Edit, kind regions.Kind) (*regions.Region, *binding.Record, *Error) {
	nodes := c.cfg.Nodes[kind]

	// Permission.
	if !c.has(e.Actor, nodes.Create) && !c.has(e.Actor, nodes.Member) && !c.has(e.Actor, nodes.Owner) {
		key := "setup-noPermissionRent"
		if kind == regions.KindBuy {
			key = "setup-noPermissionBuy"
		}
		return nil, nil, fail(CodeUnauthorized, "", key)
	}

	// Target.
	name, ferr := c.resolveTarget(e)
	if ferr != nil {
		return nil, nil, ferr
	}

	// Eligibility.
	switch c.d.Gate.CheckEligibility(e.Actor, name, e.Loc.World, kind) {
	case regions.AddOK:
	case regions.AddAlreadySameWorld:
		return nil, nil, fail(CodeAlreadyRegistered, DetailSameWorld, "setup-alreadyRentSign", name)
	case regions.AddAlreadyOtherWorld:
		return nil, nil, fail(CodeAlreadyRegistered, DetailOtherWorld, "setup-alreadyOtherWorld", name)
	case regions.AddBlacklisted:
		return nil, nil, fail(CodeBlacklisted, "", "setup-blacklisted", name)
	case regions.AddNoPermission:
		return nil, nil, fail(CodeUnauthorized, "", "setup-noPermission", name)
	default:
		return nil, nil, fail(CodeUnauthorized, "", "setup-noPermission", name)
	}

	// Fields. Rent: line 3 duration, line 4 price. Buy: line 3 price.
	var (
		dur      regions.Duration
		durSet   bool
		price    float64
		priceSet bool
	)
	priceLine := e.line(2)
	if kind == regions.KindRent {
		priceLine = e.line(3)
		if s := e.line(2); s != "" {
			d, err := regions.ParseDuration(s)
			if err != nil {
				return nil, nil, &Error{Code: CodeInvalidFormat, Detail: DetailDuration, Key: "setup-wrongDuration", Err: err}
			}
			dur, durSet = d, true
		}
	}
	if priceLine != "" {
		p, err := regions.ParsePrice(priceLine)
		if err != nil {
			return nil, nil, &Error{Code: CodeInvalidFormat, Detail: DetailPrice, Key: "setup-wrongPrice", Err: err}
		}
		price, priceSet = p, true
	}

	// Commit.
	region, err := regions.New(kind, name, e.Loc.World)
	if err != nil {
		return nil, nil, &Error{Code: CodeInvalidFormat, Err: err}
	}
	if c.landlord(e.Actor, name, e.Loc.World, nodes) {
		region.SetLandlord(e.Actor, e.ActorName)
	}
	if priceSet {
		region.Price = price
	}
	if durSet {
		if err := region.SetDuration(dur); err != nil {
			return nil, nil, &Error{Code: CodeInvalidFormat, Detail: DetailDuration, Key: "setup-wrongDuration", Err: err}
		}
	}
	rec := c.record(e, region, "")
	if err := c.d.Registry.Register(rec); err != nil {
		return nil, nil, &Error{Code: CodeDuplicateBinding, Key: "general-duplicateSign", Err: err}
	}
	if res := c.d.Store.AddRegion(region); res.Vetoed {
		c.d.Registry.Remove(rec)
		c.d.Store.RemoveRegion(region)
		return nil, nil, fail(CodeVetoed, "", "general-cancelled", res.Reason)
	}

	if kind == regions.KindRent {
		c.notify(e.Actor, "setup-rentSuccess", region.Name)
	} else {
		c.notify(e.Actor, "setup-buySuccess", region.Name)
	}
	c.scheduleRefresh(region.Ref())
	return region, rec, nil
}

// landlord is true only for actors without the unconditional node who own
// or are members of the target under the matching conditional node.
func (c *Cascade) landlord(actor, region, world string, nodes regions.CreateNodes) bool {
	if c.has(actor, nodes.Create) || c.d.Owners == nil {
		return false
	}
	if c.has(actor, nodes.Owner) && c.d.Owners.IsOwner(world, region, actor) {
		return true
	}
	return c.has(actor, nodes.Member) && c.d.Owners.IsMember(world, region, actor)
}

func (c *Cascade) resolveTarget(e Edit) (string, *Error) {
	if name := e.line(1); name != "" {
		id, ok := c.d.Geometry.Lookup(e.Loc.World, name)
		if !ok {
			return "", fail(CodeRegionNotFound, "", "cmd-noRegion", name)
		}
		return id, nil
	}
	best, err := regions.Resolve(c.d.Geometry.CandidatesAt(e.Loc))
	if err != nil {
		var amb *regions.AmbiguousError
		if errors.As(err, &amb) {
			return "", &Error{Code: CodeAmbiguousRegion, Key: "setup-couldNotDetect", Args: []any{amb.A, amb.B}, Err: err}
		}
		return "", &Error{Code: CodeNoRegion, Key: "setup-noRegion", Err: err}
	}
	return best.ID, nil
}

func (c *Cascade) add(e Edit) (*regions.Region, *binding.Record, *Error) {
	if !c.has(e.Actor, c.cfg.AddSign) {
		return nil, nil, fail(CodeUnauthorized, "", "addsign-noPermission")
	}

	var region *regions.Region
	if name := e.line(1); name != "" {
		r, ok := c.d.Store.Get(name)
		if !ok {
			return nil, nil, fail(CodeRegionNotFound, "", "addSign-notRegistered", name)
		}
		region = r
	} else {
		found := c.importantRegions(e.Loc)
		switch {
		case len(found) == 0:
			return nil, nil, fail(CodeNoRegion, "", "addsign-noRegions")
		case len(found) > 1:
			return nil, nil, fail(CodeAmbiguousTarget, "", "addsign-couldNotDetectSign", found[0].Name, found[1].Name)
		}
		region = found[0]
	}

	profile := e.line(2)
	rec := c.record(e, region, profile)
	if err := c.d.Registry.Register(rec); err != nil {
		return nil, nil, &Error{Code: CodeDuplicateBinding, Key: "general-duplicateSign", Err: err}
	}
	if profile == "" {
		c.notify(e.Actor, "addsign-success", region.Name)
	} else {
		c.notify(e.Actor, "addsign-successProfile", profile, region.Name)
	}
	c.scheduleRefresh(region.Ref())
	return region, rec, nil
}

// importantRegions returns the registered regions at loc, keeping only those
// with the highest priority among them, in provider order.
func (c *Cascade) importantRegions(loc geom.Location) []*regions.Region {
	var (
		out  []*regions.Region
		best int
	)
	for _, cand := range c.d.Geometry.CandidatesAt(loc) {
		r, ok := c.d.Store.Get(cand.ID)
		if !ok || r.World != loc.World {
			continue
		}
		switch {
		case len(out) == 0 || cand.Priority > best:
			out = []*regions.Region{r}
			best = cand.Priority
		case cand.Priority == best:
			out = append(out, r)
		}
	}
	return out
}

func (c *Cascade) record(e Edit, r *regions.Region, profile string) *binding.Record {
	return &binding.Record{
		Loc:     e.Loc,
		Kind:    e.Kind,
		Facing:  e.Facing,
		Profile: profile,
		Region:  r.Ref(),
	}
}

// The triggering edit has not written its final lines yet, so rendering must
// wait until the signal completes.
func (c *Cascade) scheduleRefresh(ref binding.RegionRef) {
	if c.d.Sched == nil || c.d.Refresh == nil {
		return
	}
	refresh := c.d.Refresh
	c.d.Sched.Defer(func() { refresh(ref) })
}

func (c *Cascade) has(actor, node string) bool {
	return node != "" && c.d.Perms.Has(actor, node)
}
