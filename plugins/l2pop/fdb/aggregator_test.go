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

package fdb

import (
	"sort"
	"testing"

	"github.com/ligato/cn-infra/logging/logrus"
	. "github.com/onsi/gomega"

	agentmodel "github.com/contiv/l2pop/plugins/agentdb/model"
	netmodel "github.com/contiv/l2pop/plugins/netstore/model"
)

type fakeRegistry struct {
	agents map[string]*agentmodel.Agent
	dead   map[string]bool
}

func (r *fakeRegistry) GetAgent(host string) (*agentmodel.Agent, bool) {
	agent, found := r.agents[host]
	return agent, found
}

func (r *fakeRegistry) IsAlive(agent *agentmodel.Agent) bool {
	return !r.dead[agent.Host]
}

type fakeStore struct {
	networks map[string]*netmodel.Network
	ports    []*netmodel.Port
}

func (s *fakeStore) GetNetwork(id string) (*netmodel.Network, bool) {
	network, found := s.networks[id]
	return network, found
}

func (s *fakeStore) ListActivePorts(networkID, excludeHost string) []*netmodel.Port {
	var ports []*netmodel.Port
	for _, port := range s.ports {
		if port.NetworkID == networkID && port.HostID != "" && port.HostID != excludeHost &&
			port.AdminStateUp && port.Status == netmodel.PortStatusActive {
			ports = append(ports, port)
		}
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].ID < ports[j].ID })
	return ports
}

func activePort(id, network, host, mac string, ips ...string) *netmodel.Port {
	return &netmodel.Port{
		ID:           id,
		NetworkID:    network,
		MACAddress:   mac,
		FixedIPs:     ips,
		HostID:       host,
		Status:       netmodel.PortStatusActive,
		AdminStateUp: true,
	}
}

func newTestAggregator() (*Aggregator, *fakeRegistry, *fakeStore) {
	registry := &fakeRegistry{
		agents: map[string]*agentmodel.Agent{
			"compute-1": {Host: "compute-1", AgentType: "Open vSwitch agent", TunnelIP: "20.0.0.1",
				TunnelTypes: []string{"vxlan", "gre"}},
			"compute-2": {Host: "compute-2", AgentType: "Linux bridge agent", TunnelIP: "20.0.0.2",
				TunnelTypes: []string{"vxlan"}},
			"compute-3": {Host: "compute-3", AgentType: "Open vSwitch agent", TunnelIP: "20.0.0.3",
				TunnelTypes: []string{"gre"}},
			"compute-4": {Host: "compute-4", AgentType: "Custom agent", TunnelIP: "20.0.0.4",
				TunnelTypes: []string{"vxlan"}},
			"compute-5": {Host: "compute-5", AgentType: "Open vSwitch agent",
				TunnelTypes: []string{"vxlan"}},
		},
		dead: map[string]bool{},
	}
	store := &fakeStore{
		networks: map[string]*netmodel.Network{
			"net-vx":    {ID: "net-vx", NetworkType: netmodel.NetworkTypeVXLAN, SegmentID: 100},
			"net-local": {ID: "net-local", NetworkType: netmodel.NetworkTypeLocal},
		},
	}
	aggregator := &Aggregator{
		Log:                 logrus.DefaultLogger(),
		Agents:              registry,
		Ports:               store,
		SupportedAgentTypes: []string{"Open vSwitch agent", "Linux bridge agent"},
	}
	return aggregator, registry, store
}

func TestComputeAgentFDB(t *testing.T) {
	RegisterTestingT(t)

	aggregator, registry, store := newTestAggregator()
	store.ports = []*netmodel.Port{
		activePort("p3", "net-vx", "compute-1", "fa:16:3e:00:00:03", "10.0.0.3", "10.0.1.3"),
		activePort("p1", "net-vx", "compute-1", "fa:16:3e:00:00:01", "10.0.0.1"),
		activePort("p2", "net-vx", "compute-2", "fa:16:3e:00:00:02"),
		// no vxlan tunnel
		activePort("p4", "net-vx", "compute-3", "fa:16:3e:00:00:04", "10.0.0.4"),
		// unsupported agent type
		activePort("p5", "net-vx", "compute-4", "fa:16:3e:00:00:05", "10.0.0.5"),
		// no tunnel IP
		activePort("p6", "net-vx", "compute-5", "fa:16:3e:00:00:06", "10.0.0.6"),
		// unknown agent
		activePort("p7", "net-vx", "compute-9", "fa:16:3e:00:00:07", "10.0.0.7"),
	}

	view, err := aggregator.ComputeAgentFDB("net-vx", "")
	Expect(err).ToNot(HaveOccurred())
	Expect(view.NetworkType).To(Equal(netmodel.NetworkTypeVXLAN))
	Expect(view.SegmentID).To(BeEquivalentTo(100))
	Expect(view.Agents).To(Equal(map[string]string{"compute-1": "20.0.0.1", "compute-2": "20.0.0.2"}))
	Expect(view.FDB()).To(Equal(AgentEntries{
		"20.0.0.1": {
			FloodingEntry,
			{MAC: "fa:16:3e:00:00:01", IP: "10.0.0.1"},
			{MAC: "fa:16:3e:00:00:03", IP: "10.0.0.3"},
		},
		"20.0.0.2": {
			FloodingEntry,
			{MAC: "fa:16:3e:00:00:02", IP: ""},
		},
	}))

	// excluded host
	view, err = aggregator.ComputeAgentFDB("net-vx", "compute-2")
	Expect(err).ToNot(HaveOccurred())
	Expect(view.FDB()).To(Equal(AgentEntries{
		"20.0.0.1": {
			{MAC: "fa:16:3e:00:00:01", IP: "10.0.0.1"},
			{MAC: "fa:16:3e:00:00:03", IP: "10.0.0.3"},
		},
	}))

	// dead agent
	registry.dead["compute-1"] = true
	view, err = aggregator.ComputeAgentFDB("net-vx", "")
	Expect(err).ToNot(HaveOccurred())
	Expect(view.Hosts()).To(Equal([]string{"compute-2"}))

	agents, err := aggregator.ActiveAgents("net-vx", "")
	Expect(err).ToNot(HaveOccurred())
	Expect(agents).To(HaveLen(1))
	Expect(agents[0].Host).To(Equal("compute-2"))
}

func TestComputeAgentFDBLocalAndUnknown(t *testing.T) {
	RegisterTestingT(t)

	aggregator, _, store := newTestAggregator()
	store.ports = []*netmodel.Port{
		activePort("p1", "net-local", "compute-1", "fa:16:3e:00:00:01", "10.0.0.1"),
		activePort("p2", "net-local", "compute-2", "fa:16:3e:00:00:02", "10.0.0.2"),
	}

	view, err := aggregator.ComputeAgentFDB("net-local", "")
	Expect(err).ToNot(HaveOccurred())
	Expect(view.FDB()).To(BeEmpty())
	Expect(SupportsPopulation(netmodel.NetworkTypeLocal)).To(BeFalse())
	Expect(SupportsPopulation("")).To(BeFalse())
	Expect(SupportsPopulation(netmodel.NetworkTypeGRE)).To(BeTrue())

	_, err = aggregator.ComputeAgentFDB("net-unknown", "")
	Expect(err).To(Equal(ErrUnknownNetwork))
	_, err = aggregator.ActiveAgents("net-unknown", "")
	Expect(err).To(Equal(ErrUnknownNetwork))
}

func TestComputeAgentFDBDeterministic(t *testing.T) {
	RegisterTestingT(t)

	aggregator, _, store := newTestAggregator()
	store.ports = []*netmodel.Port{
		activePort("p2", "net-vx", "compute-2", "fa:16:3e:00:00:02", "10.0.0.2"),
		activePort("p1", "net-vx", "compute-1", "fa:16:3e:00:00:01", "10.0.0.1"),
	}
	first, err := aggregator.ComputeAgentFDB("net-vx", "")
	Expect(err).ToNot(HaveOccurred())

	store.ports[0], store.ports[1] = store.ports[1], store.ports[0]
	second, err := aggregator.ComputeAgentFDB("net-vx", "")
	Expect(err).ToNot(HaveOccurred())
	Expect(second.FDB()).To(Equal(first.FDB()))
}
