package model

import (
	"fmt"
	"sort"
)

// Pool is a named resource pool: defined on exactly one node, referenced
// by a set of defined-for nodes, owned by one delegation id.
type Pool struct {
	Type         DelegationType
	ID           string // pool name
	DelegationID string
	DefinedOn    string   // node id the pool is defined on
	DefinedFor   []string // node ids drawing from the pool
	Details      string   // JSON capacities or labels
}

// AddDefinedFor records node ids drawing from the pool, skipping ids
// already present.
func (p *Pool) AddDefinedFor(nodeIDs ...string) {
	for _, id := range nodeIDs {
		seen := false
		for _, existing := range p.DefinedFor {
			if existing == id {
				seen = true
				break
			}
		}
		if !seen {
			p.DefinedFor = append(p.DefinedFor, id)
		}
	}
}

// Validate checks that the pool is fully specified: delegation id,
// defined-on, at least one defined-for, and details must all be set.
func (p *Pool) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing pool name", ErrInvalidPool)
	}
	if p.DelegationID == "" {
		return fmt.Errorf("%w: pool %s has no delegation id", ErrInvalidPool, p.ID)
	}
	if p.DefinedOn == "" {
		return fmt.Errorf("%w: pool %s has no defined-on node", ErrInvalidPool, p.ID)
	}
	if len(p.DefinedFor) == 0 {
		return fmt.Errorf("%w: pool %s has no defined-for nodes", ErrInvalidPool, p.ID)
	}
	if p.Details == "" {
		return fmt.Errorf("%w: pool %s has no details", ErrInvalidPool, p.ID)
	}
	return nil
}

// Pools collects the pools of one delegation type, keyed by pool name,
// with an optional index by delegation id built after validation.
type Pools struct {
	typ          DelegationType
	pools        map[string]*Pool
	byDelegation map[string][]*Pool
}

// NewPools creates an empty pool collection of the given type.
func NewPools(t DelegationType) *Pools {
	return &Pools{typ: t, pools: make(map[string]*Pool)}
}

// Type returns the collection's delegation type.
func (ps *Pools) Type() DelegationType { return ps.typ }

// Size returns the number of pools.
func (ps *Pools) Size() int { return len(ps.pools) }

// AddPool inserts p, failing with ErrTypeMismatch on a type disagreement
// and ErrDuplicatePool when the pool name is taken.
func (ps *Pools) AddPool(p *Pool) error {
	if p.Type != ps.typ {
		return fmt.Errorf("%w: cannot add %s pool to %s collection", ErrTypeMismatch, p.Type, ps.typ)
	}
	if _, ok := ps.pools[p.ID]; ok {
		return fmt.Errorf("%w: pool %s already present", ErrDuplicatePool, p.ID)
	}
	ps.pools[p.ID] = p
	return nil
}

// GetPool returns the pool with the given name, or nil.
func (ps *Pools) GetPool(name string) *Pool { return ps.pools[name] }

// Names returns the pool names in sorted order.
func (ps *Pools) Names() []string {
	names := make([]string, 0, len(ps.pools))
	for n := range ps.pools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BuildIndexByDelegationID validates every pool and then groups them by
// delegation id. When any pool fails validation the whole build fails
// and the collection stays unindexed.
func (ps *Pools) BuildIndexByDelegationID() error {
	for _, name := range ps.Names() {
		if err := ps.pools[name].Validate(); err != nil {
			return err
		}
	}
	index := make(map[string][]*Pool)
	for _, name := range ps.Names() {
		p := ps.pools[name]
		index[p.DelegationID] = append(index[p.DelegationID], p)
	}
	ps.byDelegation = index
	return nil
}

// ByDelegationID returns the pools owned by the given delegation id.
// The index must have been built first.
func (ps *Pools) ByDelegationID(delegationID string) []*Pool {
	if ps.byDelegation == nil {
		return nil
	}
	return ps.byDelegation[delegationID]
}

// DelegationIDs returns the indexed delegation ids in sorted order.
func (ps *Pools) DelegationIDs() []string {
	ids := make([]string, 0, len(ps.byDelegation))
	for id := range ps.byDelegation {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GenerateDelegationsByNodeID expands the pool collection back into
// per-node delegation dictionaries: one pool-definition entry on each
// defining node and one pool-reference entry on every other referencing
// node. This is the serialization step that writes pools back onto ARM
// nodes.
func (ps *Pools) GenerateDelegationsByNodeID() (map[string]*Delegations, error) {
	byNode := make(map[string]*Delegations)
	add := func(nodeID string, d *Delegation) error {
		ds, ok := byNode[nodeID]
		if !ok {
			ds = NewDelegations(ps.typ)
			byNode[nodeID] = ds
		}
		return ds.Add(d)
	}
	for _, name := range ps.Names() {
		p := ps.pools[name]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := add(p.DefinedOn, NewPoolDefinitionDelegation(p.DelegationID, ps.typ, p.ID, p.Details)); err != nil {
			return nil, err
		}
		for _, nodeID := range p.DefinedFor {
			if nodeID == p.DefinedOn {
				continue
			}
			if err := add(nodeID, NewPoolReferenceDelegation(p.DelegationID, ps.typ, p.ID)); err != nil {
				return nil, err
			}
		}
	}
	return byNode, nil
}
