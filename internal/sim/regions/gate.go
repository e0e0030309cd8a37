package regions

import (
	"regexp"
)

type AddResult int

const (
	AddOK AddResult = iota
	AddAlreadySameWorld
	AddAlreadyOtherWorld
	AddBlacklisted
	AddNoPermission
)

func (r AddResult) String() string {
	switch r {
	case AddOK:
		return "OK"
	case AddAlreadySameWorld:
		return "ALREADY_SAME_WORLD"
	case AddAlreadyOtherWorld:
		return "ALREADY_OTHER_WORLD"
	case AddBlacklisted:
		return "BLACKLISTED"
	case AddNoPermission:
		return "NO_PERMISSION"
	}
	return "UNKNOWN"
}

// CreateNodes are the permission nodes that allow creating a region kind:
// Create unconditionally, Member/Owner only for regions the actor belongs to.
type CreateNodes struct {
	Create string
	Member string
	Owner  string
}

type Permissions interface {
	Has(actor, node string) bool
}

type Ownership interface {
	IsMember(world, region, actor string) bool
	IsOwner(world, region, actor string) bool
}

// Gate decides whether a region may be registered.
type Gate struct {
	store     *Store
	perms     Permissions
	owners    Ownership
	nodes     map[Kind]CreateNodes
	blacklist []*regexp.Regexp
}

func NewGate(store *Store, perms Permissions, owners Ownership, nodes map[Kind]CreateNodes, blacklist []*regexp.Regexp) *Gate {
	return &Gate{store: store, perms: perms, owners: owners, nodes: nodes, blacklist: blacklist}
}

func (g *Gate) CheckEligibility(actor, region, world string, kind Kind) AddResult {
	if cur, ok := g.store.Get(region); ok {
		if cur.World == world {
			return AddAlreadySameWorld
		}
		return AddAlreadyOtherWorld
	}
	for _, re := range g.blacklist {
		if re.MatchString(region) {
			return AddBlacklisted
		}
	}
	n := g.nodes[kind]
	if g.perms.Has(actor, n.Create) {
		return AddOK
	}
	if n.Owner != "" && g.perms.Has(actor, n.Owner) && g.owners.IsOwner(world, region, actor) {
		return AddOK
	}
	if n.Member != "" && g.perms.Has(actor, n.Member) && g.owners.IsMember(world, region, actor) {
		return AddOK
	}
	return AddNoPermission
}
