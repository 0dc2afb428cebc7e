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
	"github.com/ligato/cn-infra/logging"
	"github.com/pkg/errors"

	agentmodel "github.com/contiv/l2pop/plugins/agentdb/model"
	netmodel "github.com/contiv/l2pop/plugins/netstore/model"
)

// ErrUnknownNetwork is returned when the network does not exist.
var ErrUnknownNetwork = errors.New("unknown network")

// AgentRegistry provides agent capabilities and liveness.
type AgentRegistry interface {
	GetAgent(host string) (agent *agentmodel.Agent, found bool)
	IsAlive(agent *agentmodel.Agent) bool
}

// PortStore provides networks and active ports.
type PortStore interface {
	GetNetwork(id string) (network *netmodel.Network, found bool)
	ListActivePorts(networkID, excludeHost string) []*netmodel.Port
}

// SupportsPopulation returns true if forwarding entries are distributed
// for networks of the given type.
func SupportsPopulation(networkType string) bool {
	return networkType != "" && networkType != netmodel.NetworkTypeLocal
}

// Aggregator computes forwarding database views from the current state
// of ports and agents.
type Aggregator struct {
	Log                 logging.Logger
	Agents              AgentRegistry
	Ports               PortStore
	SupportedAgentTypes []string
}

// ComputeAgentFDB returns the view of the network built from active ports
// hosted by eligible agents. Ports of excludeHost are left out as if its
// agent was gone. The view of a network whose type does not support
// population is always empty.
func (a *Aggregator) ComputeAgentFDB(networkID, excludeHost string) (*View, error) {
	network, found := a.Ports.GetNetwork(networkID)
	if !found {
		return nil, ErrUnknownNetwork
	}
	view := NewView(network.ID, network.NetworkType, network.SegmentID)
	if !SupportsPopulation(network.NetworkType) {
		return view, nil
	}

	eligible := map[string]*agentmodel.Agent{}
	rejected := map[string]struct{}{}
	for _, port := range a.Ports.ListActivePorts(networkID, excludeHost) {
		host := port.HostID
		if _, skip := rejected[host]; skip {
			continue
		}
		agent, ok := eligible[host]
		if !ok {
			var reason string
			if agent, reason = a.eligibleAgent(host, network.NetworkType); agent == nil {
				a.Log.Debugf("Agent %s does not participate in network %s: %s", host, networkID, reason)
				rejected[host] = struct{}{}
				continue
			}
			eligible[host] = agent
		}
		view.AddEntry(host, agent.TunnelIP, Entry{MAC: port.MACAddress, IP: port.FirstIP()})
	}
	return view, nil
}

// ActiveAgents returns agents hosting at least one active port
// of the network, sorted by host.
func (a *Aggregator) ActiveAgents(networkID, excludeHost string) ([]*agentmodel.Agent, error) {
	view, err := a.ComputeAgentFDB(networkID, excludeHost)
	if err != nil {
		return nil, err
	}
	var agents []*agentmodel.Agent
	for _, host := range view.Hosts() {
		if agent, found := a.Agents.GetAgent(host); found {
			agents = append(agents, agent)
		}
	}
	return agents, nil
}

func (a *Aggregator) eligibleAgent(host, networkType string) (agent *agentmodel.Agent, reason string) {
	agent, found := a.Agents.GetAgent(host)
	switch {
	case !found:
		return nil, "not registered"
	case !a.Agents.IsAlive(agent):
		return nil, "not alive"
	case !a.supportedType(agent.AgentType):
		return nil, "unsupported agent type " + agent.AgentType
	case agent.TunnelIP == "":
		return nil, "no tunnel IP"
	case !agent.SupportsTunnelType(networkType):
		return nil, "tunnel type " + networkType + " not supported"
	}
	return agent, ""
}

func (a *Aggregator) supportedType(agentType string) bool {
	for _, t := range a.SupportedAgentTypes {
		if t == agentType {
			return true
		}
	}
	return false
}
