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
	"github.com/pkg/errors"

	"github.com/contiv/l2pop/plugins/netstore"
	netmodel "github.com/contiv/l2pop/plugins/netstore/model"
)

// OnDeviceUp marks the port referenced by device as ACTIVE, provided it
// is bound to the host reporting it.
func (p *L2Pop) OnDeviceUp(host, device string) error {
	return p.onDeviceStatus(host, device, netmodel.PortStatusActive)
}

// OnDeviceDown marks the port referenced by device as DOWN, provided it
// is bound to the host reporting it.
func (p *L2Pop) OnDeviceDown(host, device string) error {
	return p.onDeviceStatus(host, device, netmodel.PortStatusDown)
}

func (p *L2Pop) onDeviceStatus(host, device, status string) error {
	port, found := p.NetStore.LookupPortByDevice(device)
	if !found {
		p.Log.Debugf("Device %s reported by %s does not reference a known port", device, host)
		return nil
	}
	if port.HostID != host {
		p.Log.Debugf("Device %s reported by %s is bound to host '%s', ignoring", device, host, port.HostID)
		return nil
	}

	portID := port.ID
	return p.syncNetwork(port.NetworkID, syncOptions{
		update: func() error {
			// the port may have been rebound since the lookup
			current, found := p.NetStore.GetPort(portID)
			if !found || current.HostID != host {
				p.Log.Debugf("Port %s is no longer bound to %s", portID, host)
				return nil
			}
			prevStatus, err := p.NetStore.UpdatePortStatus(portID, status)
			if err == netstore.ErrPortNotFound {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "failed to update status of port %s", portID)
			}
			if prevStatus != status {
				p.Log.Infof("Port %s on %s changed status %s -> %s", portID, host, prevStatus, status)
			}
			return nil
		},
	})
}

// OnPortUpdate handles a created or updated port (binding, admin state).
func (p *L2Pop) OnPortUpdate(prev, port *netmodel.Port) error {
	if port == nil {
		return nil
	}
	networks := []string{port.NetworkID}
	if prev != nil && prev.NetworkID != port.NetworkID {
		networks = append(networks, prev.NetworkID)
	}
	return p.syncNetworks(sortedIDs(networks), syncOptions{})
}

// OnPortDelete handles a deleted port.
func (p *L2Pop) OnPortDelete(port *netmodel.Port) error {
	if port == nil {
		return nil
	}
	return p.syncNetwork(port.NetworkID, syncOptions{})
}

// OnAgentUp handles an agent that came up or restarted. The agent is sent
// the complete forwarding database of every network it participates in.
func (p *L2Pop) OnAgentUp(host string) error {
	p.Log.Infof("Agent %s is up", host)
	return p.syncNetworks(p.hostNetworks(host), syncOptions{prime: host})
}

// OnAgentReconfigured handles an alive agent that changed its type or tunnel
// configuration. Only networks it joins are sent to it in full.
func (p *L2Pop) OnAgentReconfigured(host string) error {
	p.Log.Infof("Agent %s was reconfigured", host)
	return p.syncNetworks(p.hostNetworks(host), syncOptions{})
}

// OnAgentDown handles an agent that is gone. Its entries are withdrawn
// from all other agents.
func (p *L2Pop) OnAgentDown(host string) error {
	p.Log.Infof("Agent %s is down", host)
	return p.syncNetworks(p.hostNetworks(host), syncOptions{exclude: host})
}

// Resync recomputes all networks.
func (p *L2Pop) Resync() error {
	var stored []string
	for _, network := range p.NetStore.ListNetworks() {
		stored = append(stored, network.ID)
	}
	var known []string
	for _, view := range p.ListFDB() {
		known = append(known, view.NetworkID)
	}
	networks := sortedIDs(stored, known)
	p.Log.Infof("Resynchronizing %d networks", len(networks))
	return p.syncNetworks(networks, syncOptions{})
}

// hostNetworks returns networks with ports bound to the host together with
// networks whose last view includes the host.
func (p *L2Pop) hostNetworks(host string) []string {
	var bound []string
	for _, port := range p.NetStore.ListHostPorts(host) {
		bound = append(bound, port.NetworkID)
	}
	return sortedIDs(bound, p.networksWithHost(host))
}
