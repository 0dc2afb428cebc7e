// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package l2pop

import (
	"sort"
	"sync"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/agentdb"
	"github.com/contiv/l2pop/plugins/l2pop/fdb"
	"github.com/contiv/l2pop/plugins/l2pop/rpc"
	"github.com/contiv/l2pop/plugins/netstore"
	"github.com/contiv/l2pop/plugins/statscollector"
)

const (
	networksGauge = "l2pop_networks"
	agentsGauge   = "l2pop_agents"
)

// L2Pop keeps forwarding databases of switch agents in sync with the state
// of ports and agents.
type L2Pop struct {
	Deps

	config     *Config
	aggregator *fdb.Aggregator
	notifier   rpc.Notifier
	netLocks   *netLocks

	viewsLock sync.Mutex
	views     map[string]*fdb.View // network ID -> last computed view
}

// Deps groups the dependencies of the L2Pop plugin.
type Deps struct {
	infra.PluginDeps

	AgentDB  agentdb.API
	NetStore netstore.API

	// Messaging creates publishers of notifications, used unless Notifier is set
	Messaging rpc.PublisherFactory
	Notifier  rpc.Notifier

	// Stats counts notifications, can be nil
	Stats statscollector.API

	// HTTPHandlers are used to expose the REST API, can be nil
	HTTPHandlers rest.HTTPHandlers
}

// Init loads the configuration, builds the views of all stored networks
// and subscribes to agent and port changes.
func (p *L2Pop) Init() error {
	if p.config == nil {
		p.config = &Config{}
		if _, err := p.Cfg.LoadValue(p.config); err != nil {
			return errors.Wrapf(err, "failed to load %s configuration", p.String())
		}
	}
	p.config.ApplyDefaults()
	p.Log.Infof("L2Pop configuration: %+v", *p.config)

	p.views = make(map[string]*fdb.View)
	p.netLocks = newNetLocks()
	p.aggregator = &fdb.Aggregator{
		Log:                 p.Log,
		Agents:              p.AgentDB,
		Ports:               p.NetStore,
		SupportedAgentTypes: p.config.SupportedAgentTypes,
	}

	p.notifier = p.Notifier
	if p.notifier == nil {
		if p.Messaging == nil {
			return errors.New("neither notifier nor messaging is available")
		}
		p.notifier = rpc.NewAgentNotifier(p.Log, p.Messaging, p.config.MessagingConnection, p.config.TopicPrefix)
	}

	p.seedViews()
	p.AgentDB.RegisterLifecycleHandler(p.String(), p)
	p.NetStore.RegisterPortHandler(p.String(), p)
	return nil
}

// AfterInit registers REST handlers and gauges.
func (p *L2Pop) AfterInit() error {
	if p.HTTPHandlers != nil {
		p.registerHandlers(p.HTTPHandlers)
	}
	if p.Stats != nil {
		p.Stats.RegisterGaugeFunc(networksGauge, "Number of networks with populated FDB", func() float64 {
			return float64(len(p.ListFDB()))
		})
		p.Stats.RegisterGaugeFunc(agentsGauge, "Number of agents participating in L2 population", func() float64 {
			return float64(p.participatingAgents())
		})
	}
	return nil
}

// Close does nothing.
func (p *L2Pop) Close() error {
	return nil
}

// GetFDB returns the last computed view of the network.
func (p *L2Pop) GetFDB(networkID string) (view *fdb.View, found bool) {
	p.viewsLock.Lock()
	defer p.viewsLock.Unlock()
	view, found = p.views[networkID]
	if !found {
		return nil, false
	}
	return view.Copy(), true
}

// ListFDB returns the last computed views of all networks sorted by ID.
func (p *L2Pop) ListFDB() []*fdb.View {
	p.viewsLock.Lock()
	defer p.viewsLock.Unlock()
	var views []*fdb.View
	for _, view := range p.views {
		views = append(views, view.Copy())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].NetworkID < views[j].NetworkID })
	return views
}

// seedViews computes views of all stored networks without notifying agents,
// they are expected to hold the state from before the restart.
func (p *L2Pop) seedViews() {
	for _, network := range p.NetStore.ListNetworks() {
		if !fdb.SupportsPopulation(network.NetworkType) {
			continue
		}
		view, err := p.aggregator.ComputeAgentFDB(network.ID, "")
		if err != nil {
			p.Log.Warnf("Failed to compute FDB of network %s: %v", network.ID, err)
			continue
		}
		p.storeView(network.ID, view)
	}
	p.Log.Infof("FDB views of %d networks were computed", len(p.views))
}

func (p *L2Pop) getView(networkID string) *fdb.View {
	p.viewsLock.Lock()
	defer p.viewsLock.Unlock()
	return p.views[networkID]
}

func (p *L2Pop) storeView(networkID string, view *fdb.View) {
	p.viewsLock.Lock()
	defer p.viewsLock.Unlock()
	if view == nil {
		delete(p.views, networkID)
		return
	}
	p.views[networkID] = view
}

// networksWithHost returns IDs of networks whose last view includes the host.
func (p *L2Pop) networksWithHost(host string) []string {
	p.viewsLock.Lock()
	defer p.viewsLock.Unlock()
	var ids []string
	for id, view := range p.views {
		if view.HasHost(host) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *L2Pop) participatingAgents() int {
	p.viewsLock.Lock()
	defer p.viewsLock.Unlock()
	hosts := map[string]struct{}{}
	for _, view := range p.views {
		for host := range view.Agents {
			hosts[host] = struct{}{}
		}
	}
	return len(hosts)
}
