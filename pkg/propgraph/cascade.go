package propgraph

import (
	"github.com/openbroker/resgraph/pkg/model"
)

// RemoveNetworkNode deletes a network node and its resource tree:
// components, their network services, the services' connection points
// and, where removal would leave them dangling, the attached links and
// parent connection points.
func RemoveNetworkNode(g Graph, nodeID string) error {
	components, err := g.GetFirstNeighbor(nodeID, model.EdgeHas, model.ClassComponent)
	if err != nil {
		return err
	}
	for _, c := range components {
		if err := RemoveComponent(g, c); err != nil {
			return err
		}
	}
	services, err := g.GetFirstNeighbor(nodeID, model.EdgeHas, model.ClassNetworkService)
	if err != nil {
		return err
	}
	for _, ns := range services {
		if err := RemoveNetworkService(g, ns); err != nil {
			return err
		}
	}
	return g.DeleteNode(nodeID)
}

// RemoveComponent deletes a component and cascades through its network
// services.
func RemoveComponent(g Graph, componentID string) error {
	services, err := g.GetFirstNeighbor(componentID, model.EdgeHas, model.ClassNetworkService)
	if err != nil {
		return err
	}
	for _, ns := range services {
		if err := RemoveNetworkService(g, ns); err != nil {
			return err
		}
	}
	return g.DeleteNode(componentID)
}

// RemoveNetworkService deletes a network service and cascades through
// its connection points.
func RemoveNetworkService(g Graph, serviceID string) error {
	cps, err := g.GetFirstNeighbor(serviceID, model.EdgeConnects, model.ClassConnectionPoint)
	if err != nil {
		return err
	}
	for _, cp := range cps {
		if err := RemoveConnectionPoint(g, cp); err != nil {
			return err
		}
	}
	return g.DeleteNode(serviceID)
}

// RemoveConnectionPoint deletes a connection point. An attached link is
// deleted only when losing this endpoint would leave it dangling; a
// directly attached parent connection point is deleted only when left
// with no other children.
func RemoveConnectionPoint(g Graph, cpID string) error {
	links, err := g.GetFirstNeighbor(cpID, model.EdgeConnects, model.ClassLink)
	if err != nil {
		return err
	}
	for _, link := range links {
		endpoints, err := g.GetFirstNeighbor(link, model.EdgeConnects, model.ClassConnectionPoint)
		if err != nil {
			return err
		}
		// A two-endpoint link cannot survive losing one side.
		if len(endpoints) <= 2 {
			if err := g.DeleteNode(link); err != nil {
				return err
			}
		}
	}

	parents, err := g.GetFirstNeighbor(cpID, model.EdgeConnects, model.ClassConnectionPoint)
	if err != nil {
		return err
	}

	if err := g.DeleteNode(cpID); err != nil {
		return err
	}

	for _, parent := range parents {
		children, err := g.GetFirstNeighbor(parent, model.EdgeConnects, model.ClassConnectionPoint)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			if err := g.DeleteNode(parent); err != nil {
				return err
			}
		}
	}
	return nil
}
