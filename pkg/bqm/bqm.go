// Package bqm reduces a combined broker model to its site-level view:
// one CompositeNode per site summing every host's capacities, with one
// aggregated Component per (type, model) group hanging off it.
package bqm

import (
	"fmt"
	"sort"

	"github.com/openbroker/resgraph/pkg/logging"
	"github.com/openbroker/resgraph/pkg/metrics"
	"github.com/openbroker/resgraph/pkg/model"
	"github.com/openbroker/resgraph/pkg/propgraph"
	"github.com/openbroker/resgraph/pkg/sliver"
)

// Aggregator builds broker query models.
type Aggregator struct {
	store   propgraph.Store
	log     logging.Logger
	metrics *metrics.Registry
}

// NewAggregator creates an aggregator producing its models in store.
func NewAggregator(store propgraph.Store, log logging.Logger, m *metrics.Registry) *Aggregator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Aggregator{store: store, log: log, metrics: m}
}

// componentGroup accumulates the capacities of same-typed components.
type componentGroup struct {
	Type       string
	Model      string
	Count      int
	Capacities *model.Capacities
}

// Aggregate reduces src to one composite node per site under a fresh
// graph with the given id.
func (a *Aggregator) Aggregate(src propgraph.Graph, bqmID string) (propgraph.Graph, error) {
	bqm, err := a.store.NewGraph(bqmID)
	if err != nil {
		return nil, err
	}
	nodeIDs, err := src.ListNodes()
	if err != nil {
		return nil, err
	}

	bySite := make(map[string][]string)
	for _, nodeID := range nodeIDs {
		classes, props, err := src.GetNodeProperties(nodeID)
		if err != nil {
			return nil, err
		}
		if !hasClass(classes, model.ClassNetworkNode) {
			continue
		}
		site := props[model.PropSite]
		if site == "" {
			continue
		}
		bySite[site] = append(bySite[site], nodeID)
	}

	sites := make([]string, 0, len(bySite))
	for site := range bySite {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	for _, site := range sites {
		if err := a.aggregateSite(src, bqm, site, bySite[site]); err != nil {
			return nil, err
		}
	}
	a.log.Info("site view aggregated",
		logging.GraphID(bqmID), logging.Int("sites", len(sites)))
	return bqm, nil
}

// aggregateSite reduces one site's hosts to a composite node plus one
// aggregated component per (type, model) group.
func (a *Aggregator) aggregateSite(src, bqm propgraph.Graph, site string, hostIDs []string) error {
	total := &model.Capacities{}
	delegated := &model.Capacities{}
	groups := make(map[string]*componentGroup)

	for _, hostID := range hostIDs {
		host, err := sliver.FromNode(src, hostID)
		if err != nil {
			return err
		}
		total = total.Add(host.Capacities)
		hostDelegated, err := host.DelegatedCapacities()
		if err != nil {
			return err
		}
		delegated = delegated.Add(hostDelegated)

		for _, c := range host.Components {
			key := c.Type + "/" + c.Model
			group, ok := groups[key]
			if !ok {
				group = &componentGroup{Type: c.Type, Model: c.Model, Capacities: &model.Capacities{}}
				groups[key] = group
			}
			group.Count++
			group.Capacities = group.Capacities.Add(c.Capacities)
		}
	}

	compositeID := site
	props := map[string]string{
		model.PropName: site,
		model.PropSite: site,
	}
	if !total.IsZero() {
		encoded, err := total.ToJSON()
		if err != nil {
			return err
		}
		props[model.PropCapacities] = encoded
	}
	if !delegated.IsZero() {
		encoded, err := delegated.ToJSON()
		if err != nil {
			return err
		}
		props[model.PropCapacityAllocations] = encoded
	}
	if err := bqm.AddNode(compositeID, model.ClassCompositeNode, props); err != nil {
		return err
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		group := groups[key]
		componentID := fmt.Sprintf("%s-%s-%s", site, group.Type, group.Model)
		componentProps := map[string]string{
			model.PropName:  componentID,
			model.PropType:  group.Type,
			model.PropModel: group.Model,
		}
		if !group.Capacities.IsZero() {
			encoded, err := group.Capacities.ToJSON()
			if err != nil {
				return err
			}
			componentProps[model.PropCapacities] = encoded
		}
		if err := bqm.AddNode(componentID, model.ClassComponent, componentProps); err != nil {
			return err
		}
		if err := bqm.AddEdge(compositeID, model.EdgeHas, componentID, nil); err != nil {
			return err
		}
	}
	return nil
}

func hasClass(classes []string, class model.NodeClass) bool {
	for _, c := range classes {
		if c == string(class) {
			return true
		}
	}
	return false
}
