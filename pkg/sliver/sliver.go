// Package sliver materializes typed views of graph nodes: a sliver is
// the in-memory object form of one node's resource properties, rebuilt
// from the flat property bag so callers never hand-assemble property
// dictionaries. Deep reconstruction walks has/connects edges to attach
// components, network services and interfaces.
package sliver

import (
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
)

// InterfaceSliver is the object form of a ConnectionPoint node.
type InterfaceSliver struct {
	NodeID     string
	Name       string
	Type       string
	Labels     *model.Labels
	Capacities *model.Capacities
}

// NetworkServiceSliver is the object form of a NetworkService node and
// its connection points.
type NetworkServiceSliver struct {
	NodeID     string
	Name       string
	Type       string
	Layer      string
	Interfaces []*InterfaceSliver
}

// ComponentSliver is the object form of a Component node and its
// network services.
type ComponentSliver struct {
	NodeID          string
	Name            string
	Type            string
	Model           string
	Capacities      *model.Capacities
	NetworkServices []*NetworkServiceSliver
}

// NodeSliver is the object form of a NetworkNode or CompositeNode and
// its full resource tree.
type NodeSliver struct {
	NodeID              string
	Name                string
	Site                string
	Capacities          *model.Capacities
	CapacityDelegations *model.Delegations
	Components          []*ComponentSliver
}

// DelegatedCapacities sums the capacity details of every delegation
// entry on the sliver. Pool references carry no details and contribute
// nothing.
func (s *NodeSliver) DelegatedCapacities() (*model.Capacities, error) {
	total := &model.Capacities{}
	if s.CapacityDelegations == nil {
		return total, nil
	}
	for _, id := range s.CapacityDelegations.IDs() {
		d := s.CapacityDelegations.Get(id)
		if d.Details == "" {
			continue
		}
		caps, err := model.CapacitiesFromJSON(d.Details)
		if err != nil {
			return nil, err
		}
		total = total.Add(caps)
	}
	return total, nil
}

// FromNode performs deep reconstruction of the resource tree rooted at
// nodeID, following has edges to components, has edges to their network
// services and connects edges to the services' connection points.
func FromNode(g propgraph.Graph, nodeID string) (*NodeSliver, error) {
	_, props, err := g.GetNodeProperties(nodeID)
	if err != nil {
		return nil, err
	}
	s := &NodeSliver{
		NodeID: nodeID,
		Name:   props[model.PropName],
		Site:   props[model.PropSite],
	}
	if raw := props[model.PropCapacities]; raw != "" {
		if s.Capacities, err = model.CapacitiesFromJSON(raw); err != nil {
			return nil, err
		}
	}
	if raw := props[model.PropCapacityDelegations]; raw != "" {
		if s.CapacityDelegations, err = model.DelegationsFromJSON(raw, model.DelegationCapacity); err != nil {
			return nil, err
		}
	}

	componentIDs, err := g.GetFirstNeighbor(nodeID, model.EdgeHas, model.ClassComponent)
	if err != nil {
		return nil, err
	}
	for _, id := range componentIDs {
		c, err := componentFromNode(g, id)
		if err != nil {
			return nil, err
		}
		s.Components = append(s.Components, c)
	}
	return s, nil
}

func componentFromNode(g propgraph.Graph, componentID string) (*ComponentSliver, error) {
	_, props, err := g.GetNodeProperties(componentID)
	if err != nil {
		return nil, err
	}
	c := &ComponentSliver{
		NodeID: componentID,
		Name:   props[model.PropName],
		Type:   props[model.PropType],
		Model:  props[model.PropModel],
	}
	if raw := props[model.PropCapacities]; raw != "" {
		if c.Capacities, err = model.CapacitiesFromJSON(raw); err != nil {
			return nil, err
		}
	}

	serviceIDs, err := g.GetFirstNeighbor(componentID, model.EdgeHas, model.ClassNetworkService)
	if err != nil {
		return nil, err
	}
	for _, id := range serviceIDs {
		ns, err := serviceFromNode(g, id)
		if err != nil {
			return nil, err
		}
		c.NetworkServices = append(c.NetworkServices, ns)
	}
	return c, nil
}

func serviceFromNode(g propgraph.Graph, serviceID string) (*NetworkServiceSliver, error) {
	_, props, err := g.GetNodeProperties(serviceID)
	if err != nil {
		return nil, err
	}
	ns := &NetworkServiceSliver{
		NodeID: serviceID,
		Name:   props[model.PropName],
		Type:   props[model.PropType],
		Layer:  props[model.PropLayer],
	}

	cpIDs, err := g.GetFirstNeighbor(serviceID, model.EdgeConnects, model.ClassConnectionPoint)
	if err != nil {
		return nil, err
	}
	for _, id := range cpIDs {
		itf, err := interfaceFromNode(g, id)
		if err != nil {
			return nil, err
		}
		ns.Interfaces = append(ns.Interfaces, itf)
	}
	return ns, nil
}

func interfaceFromNode(g propgraph.Graph, cpID string) (*InterfaceSliver, error) {
	_, props, err := g.GetNodeProperties(cpID)
	if err != nil {
		return nil, err
	}
	itf := &InterfaceSliver{
		NodeID: cpID,
		Name:   props[model.PropName],
		Type:   props[model.PropType],
	}
	if raw := props[model.PropLabels]; raw != "" {
		if itf.Labels, err = model.LabelsFromJSON(raw); err != nil {
			return nil, err
		}
	}
	if raw := props[model.PropCapacities]; raw != "" {
		if itf.Capacities, err = model.CapacitiesFromJSON(raw); err != nil {
			return nil, err
		}
	}
	return itf, nil
}
