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
)

// View is the forwarding database of one network as seen by an outside
// observer: entries of all active ports grouped by the tunnel endpoint
// of the agent hosting them.
type View struct {
	NetworkID   string
	NetworkType string
	SegmentID   uint32

	// Agents maps host of every participating agent to its tunnel IP.
	Agents map[string]string

	// entries of every host ordered by port ID, without flooding entries
	hostEntries map[string]PortEntries
}

// NewView returns an empty view of the network.
func NewView(networkID, networkType string, segmentID uint32) *View {
	return &View{
		NetworkID:   networkID,
		NetworkType: networkType,
		SegmentID:   segmentID,
		Agents:      map[string]string{},
		hostEntries: map[string]PortEntries{},
	}
}

// AddEntry adds an entry of a port hosted by the agent of the given host.
func (v *View) AddEntry(host, tunnelIP string, entry Entry) {
	v.Agents[host] = tunnelIP
	v.hostEntries[host] = append(v.hostEntries[host], entry)
}

// Hosts returns sorted hosts of participating agents.
func (v *View) Hosts() []string {
	var hosts []string
	for host := range v.Agents {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// HasHost returns true if the agent of the host participates in the network.
func (v *View) HasHost(host string) bool {
	_, has := v.Agents[host]
	return has
}

// HasTunnelIP returns true if some participating agent has the tunnel IP.
func (v *View) HasTunnelIP(tunnelIP string) bool {
	for _, ip := range v.Agents {
		if ip == tunnelIP {
			return true
		}
	}
	return false
}

// AgentCount returns the number of distinct tunnel endpoints.
func (v *View) AgentCount() int {
	ips := map[string]struct{}{}
	for _, ip := range v.Agents {
		ips[ip] = struct{}{}
	}
	return len(ips)
}

// Entries returns port entries grouped by tunnel IP, without flooding entries.
func (v *View) Entries() AgentEntries {
	res := AgentEntries{}
	for _, host := range v.Hosts() {
		ip := v.Agents[host]
		res[ip] = append(res[ip], v.hostEntries[host]...)
	}
	return res
}

// FDB returns port entries grouped by tunnel IP. When the network spans
// at least two tunnel endpoints, every list starts with FloodingEntry.
func (v *View) FDB() AgentEntries {
	entries := v.Entries()
	if v.AgentCount() < 2 {
		return entries
	}
	res := make(AgentEntries, len(entries))
	for ip, list := range entries {
		res[ip] = append(PortEntries{FloodingEntry}, list...)
	}
	return res
}

// Exclude returns the view without the agent of the given host, i.e. the
// view of the network from the perspective of that agent.
func (v *View) Exclude(host string) *View {
	res := NewView(v.NetworkID, v.NetworkType, v.SegmentID)
	for h, ip := range v.Agents {
		if h == host {
			continue
		}
		res.Agents[h] = ip
		res.hostEntries[h] = append(PortEntries(nil), v.hostEntries[h]...)
	}
	return res
}

// Copy returns a deep copy of the view.
func (v *View) Copy() *View {
	return v.Exclude("")
}

// NewDelta returns a delta of this network.
func (v *View) NewDelta(add, remove AgentEntries) *Delta {
	return &Delta{
		NetworkID:   v.NetworkID,
		NetworkType: v.NetworkType,
		SegmentID:   v.SegmentID,
		Add:         add,
		Remove:      remove,
	}
}
