package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DelegationType says whether a delegation grants capacity or label space.
type DelegationType string

const (
	DelegationCapacity DelegationType = "capacity"
	DelegationLabel    DelegationType = "label"
)

// PropKey returns the node property under which delegations of this
// type are serialized.
func (t DelegationType) PropKey() string {
	if t == DelegationLabel {
		return PropLabelDelegations
	}
	return PropCapacityDelegations
}

// DelegationFormat distinguishes the three wire forms a delegation
// entry can take.
type DelegationFormat int

const (
	// FormatSinglePool delegates the whole capacity/label value as one unit.
	FormatSinglePool DelegationFormat = iota
	// FormatPoolDefinition names and bounds a shared pool defined on this node.
	FormatPoolDefinition
	// FormatPoolReference draws from a pool defined on another node.
	FormatPoolReference
)

func (f DelegationFormat) String() string {
	switch f {
	case FormatSinglePool:
		return "single-pool"
	case FormatPoolDefinition:
		return "pool-definition"
	case FormatPoolReference:
		return "pool-reference"
	default:
		return "unknown"
	}
}

// SinglePoolID is the pool_id marker for single-pool delegations.
const SinglePoolID = "_"

// Delegation grants a named delegatee part of a node's capacity or
// label space. ID is the delegation id, typically the graph id of the
// ADM generated for the delegatee.
type Delegation struct {
	ID      string
	Type    DelegationType
	Format  DelegationFormat
	PoolID  string // pool name for pool definitions and references
	Details string // JSON capacities or labels; empty for references
}

// NewSinglePoolDelegation delegates details wholesale under id.
func NewSinglePoolDelegation(id string, t DelegationType, details string) *Delegation {
	return &Delegation{ID: id, Type: t, Format: FormatSinglePool, PoolID: SinglePoolID, Details: details}
}

// NewPoolDefinitionDelegation defines pool poolName with the given details.
func NewPoolDefinitionDelegation(id string, t DelegationType, poolName, details string) *Delegation {
	return &Delegation{ID: id, Type: t, Format: FormatPoolDefinition, PoolID: poolName, Details: details}
}

// NewPoolReferenceDelegation draws from pool poolName defined elsewhere.
func NewPoolReferenceDelegation(id string, t DelegationType, poolName string) *Delegation {
	return &Delegation{ID: id, Type: t, Format: FormatPoolReference, PoolID: poolName}
}

// Validate checks the structural invariants of a single delegation.
func (d *Delegation) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing delegation id", ErrInvalidDelegation)
	}
	if d.Type != DelegationCapacity && d.Type != DelegationLabel {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDelegation, d.Type)
	}
	switch d.Format {
	case FormatSinglePool:
		if d.Details == "" {
			return fmt.Errorf("%w: single-pool delegation %s has no details", ErrInvalidDelegation, d.ID)
		}
	case FormatPoolDefinition:
		if d.PoolID == "" || d.PoolID == SinglePoolID {
			return fmt.Errorf("%w: pool definition %s has no pool name", ErrInvalidDelegation, d.ID)
		}
		if d.Details == "" {
			return fmt.Errorf("%w: pool definition %s has no details", ErrInvalidDelegation, d.ID)
		}
	case FormatPoolReference:
		if d.PoolID == "" || d.PoolID == SinglePoolID {
			return fmt.Errorf("%w: pool reference %s has no pool name", ErrInvalidDelegation, d.ID)
		}
	default:
		return fmt.Errorf("%w: unknown format %d", ErrInvalidDelegation, d.Format)
	}
	return nil
}

// wireEntry is the per-delegation-id JSON object:
//
//	{"pool_id": "_"|"<pool>", "capacities"|"labels": {...}}  definitions
//	{"pool": "<pool>"}                                        references
type wireEntry struct {
	PoolID     string          `json:"pool_id,omitempty"`
	Pool       string          `json:"pool,omitempty"`
	Capacities json.RawMessage `json:"capacities,omitempty"`
	Labels     json.RawMessage `json:"labels,omitempty"`
}

// Delegations holds at most one delegation entry per delegation id, all
// of the same type. It is attached to a node as the JSON-encoded
// CapacityDelegations or LabelDelegations property.
type Delegations struct {
	typ     DelegationType
	entries map[string]*Delegation
}

// NewDelegations creates an empty container of the given type.
func NewDelegations(t DelegationType) *Delegations {
	return &Delegations{typ: t, entries: make(map[string]*Delegation)}
}

// Type returns the container's delegation type.
func (ds *Delegations) Type() DelegationType { return ds.typ }

// Size returns the number of entries.
func (ds *Delegations) Size() int { return len(ds.entries) }

// Add inserts d, failing with ErrDuplicateDelegation when an entry for
// d.ID is already present and ErrTypeMismatch when d's type disagrees
// with the container.
func (ds *Delegations) Add(d *Delegation) error {
	if d.Type != ds.typ {
		return fmt.Errorf("%w: cannot add %s delegation to %s container", ErrTypeMismatch, d.Type, ds.typ)
	}
	if _, ok := ds.entries[d.ID]; ok {
		return fmt.Errorf("%w: delegation %s already present", ErrDuplicateDelegation, d.ID)
	}
	ds.entries[d.ID] = d
	return nil
}

// Get returns the entry for the given delegation id, or nil.
func (ds *Delegations) Get(id string) *Delegation { return ds.entries[id] }

// Has reports whether an entry exists for the given delegation id.
func (ds *Delegations) Has(id string) bool {
	_, ok := ds.entries[id]
	return ok
}

// IDs returns the delegation ids in sorted order.
func (ds *Delegations) IDs() []string {
	ids := make([]string, 0, len(ds.entries))
	for id := range ds.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToJSON encodes the container as its wire form.
func (ds *Delegations) ToJSON() (string, error) {
	wire := make(map[string]wireEntry, len(ds.entries))
	for id, d := range ds.entries {
		var e wireEntry
		switch d.Format {
		case FormatPoolReference:
			e.Pool = d.PoolID
		default:
			e.PoolID = d.PoolID
			details := json.RawMessage(d.Details)
			if ds.typ == DelegationLabel {
				e.Labels = details
			} else {
				e.Capacities = details
			}
		}
		wire[id] = e
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode delegations: %w", err)
	}
	return string(data), nil
}

// DelegationsFromJSON decodes a delegation dictionary of type t from its
// wire form.
func DelegationsFromJSON(s string, t DelegationType) (*Delegations, error) {
	wire := make(map[string]wireEntry)
	if err := json.Unmarshal([]byte(s), &wire); err != nil {
		return nil, fmt.Errorf("decode delegations: %w", err)
	}
	ds := NewDelegations(t)
	for id, e := range wire {
		d := &Delegation{ID: id, Type: t}
		switch {
		case e.Pool != "":
			d.Format = FormatPoolReference
			d.PoolID = e.Pool
		case e.PoolID == SinglePoolID || e.PoolID == "":
			d.Format = FormatSinglePool
			d.PoolID = SinglePoolID
		default:
			d.Format = FormatPoolDefinition
			d.PoolID = e.PoolID
		}
		if d.Format != FormatPoolReference {
			if t == DelegationLabel {
				d.Details = string(e.Labels)
			} else {
				d.Details = string(e.Capacities)
			}
		}
		if err := ds.Add(d); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
