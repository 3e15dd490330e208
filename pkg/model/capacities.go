package model

import (
	"encoding/json"
	"fmt"
)

// Capacities is the JSON sub-document stored under the Capacities,
// CapacityDelegations details, CapacityAllocations and CapacityHints
// properties. Zero fields are omitted on the wire.
type Capacities struct {
	CPU       int64 `json:"cpu,omitempty"`
	Core      int64 `json:"core,omitempty"`
	RAM       int64 `json:"ram,omitempty"`
	Disk      int64 `json:"disk,omitempty"`
	Bandwidth int64 `json:"bw,omitempty"`
	Burst     int64 `json:"burst,omitempty"`
	Unit      int64 `json:"unit,omitempty"`
	MTU       int64 `json:"mtu,omitempty"`
}

// Add returns the field-wise sum of c and o. Either side may be nil.
func (c *Capacities) Add(o *Capacities) *Capacities {
	sum := &Capacities{}
	if c != nil {
		*sum = *c
	}
	if o != nil {
		sum.CPU += o.CPU
		sum.Core += o.Core
		sum.RAM += o.RAM
		sum.Disk += o.Disk
		sum.Bandwidth += o.Bandwidth
		sum.Burst += o.Burst
		sum.Unit += o.Unit
		sum.MTU += o.MTU
	}
	return sum
}

// IsZero reports whether every field is zero.
func (c *Capacities) IsZero() bool {
	return c == nil || *c == Capacities{}
}

// ToJSON encodes c as its wire form.
func (c *Capacities) ToJSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode capacities: %w", err)
	}
	return string(data), nil
}

// CapacitiesFromJSON decodes the wire form of a Capacities sub-document.
func CapacitiesFromJSON(s string) (*Capacities, error) {
	c := &Capacities{}
	if err := json.Unmarshal([]byte(s), c); err != nil {
		return nil, fmt.Errorf("decode capacities: %w", err)
	}
	return c, nil
}

// Labels is the JSON sub-document stored under the Labels property and
// label delegation details. Fields name the label spaces a node exposes.
type Labels struct {
	VLAN      string `json:"vlan,omitempty"`
	VLANRange string `json:"vlan-range,omitempty"`
	IPv4      string `json:"ipv4,omitempty"`
	IPv4Range string `json:"ipv4-range,omitempty"`
	IPv6      string `json:"ipv6,omitempty"`
	IPv6Range string `json:"ipv6-range,omitempty"`
	MAC       string `json:"mac,omitempty"`
	BDF       string `json:"bdf,omitempty"`
	ASN       string `json:"asn,omitempty"`
	Instance  string `json:"instance,omitempty"`
}

// IsZero reports whether every field is empty.
func (l *Labels) IsZero() bool {
	return l == nil || *l == Labels{}
}

// ToJSON encodes l as its wire form.
func (l *Labels) ToJSON() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode labels: %w", err)
	}
	return string(data), nil
}

// LabelsFromJSON decodes the wire form of a Labels sub-document.
func LabelsFromJSON(s string) (*Labels, error) {
	l := &Labels{}
	if err := json.Unmarshal([]byte(s), l); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return l, nil
}
